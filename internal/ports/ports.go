package ports

import (
	"context"
	"time"

	"HackNewsBot/internal/domain"
)

// ItemSource pulls ranked items published at or after windowStart.
type ItemSource interface {
	Fetch(ctx context.Context, windowStart time.Time, limit int) ([]domain.RawItem, error)
}

// TranslationService calls an external translation backend.
type TranslationService interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// DocumentStore is a path-keyed blob store with optimistic concurrency.
// Get returns domain.ErrDocumentNotFound for a missing path, Create returns
// domain.ErrDocumentExists when the path is taken and Update returns
// domain.ErrVersionConflict when version is stale.
type DocumentStore interface {
	Get(ctx context.Context, path string) (domain.Document, error)
	Create(ctx context.Context, path, content string) (domain.Version, error)
	Update(ctx context.Context, path, content string, version domain.Version) (domain.Version, error)
}

// Locker guards a document path against concurrent cycles.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Notifier announces published items to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
