package lock

import (
	"context"
	"sync"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

// Local serializes cycles inside one process. With wait set, Acquire blocks
// until the key is free or ctx ends; otherwise a held key fails fast with
// domain.ErrLockHeld.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait bool
}

var _ ports.Locker = (*Local)(nil)

func NewLocal(wait bool) *Local {
	return &Local{held: make(map[string]chan struct{}), wait: wait}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		done, busy := l.held[key]
		if !busy {
			done = make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return l.releaser(key, done), nil
		}
		l.mu.Unlock()

		if !l.wait {
			return nil, domain.ErrLockHeld
		}
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Local) releaser(key string, done chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
			close(done)
		})
	}
}
