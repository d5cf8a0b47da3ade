package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

const keyPrefix = "hacknewsbot:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every process pointed at the same server.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *slog.Logger
}

var _ ports.Locker = (*Redis)(nil)

// NewRedis parses a redis:// URL into a client.
func NewRedis(rawURL string, ttl time.Duration, log *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opts), ttl, log), nil
}

func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration, log *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, log: log}
}

// Acquire never waits: a key held elsewhere yields domain.ErrLockHeld.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	name := keyPrefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	return func() {
		// Release must run even when the cycle context is already cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{name}, token).Err(); err != nil {
			r.log.Warn("release lock failed", "key", key, "error", err)
		}
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
