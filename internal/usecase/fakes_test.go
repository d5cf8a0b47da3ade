package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"HackNewsBot/internal/domain"
)

var testDay = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func rawItems(ids ...domain.ItemID) []domain.RawItem {
	items := make([]domain.RawItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.RawItem{
			ID:          id,
			Title:       "Title " + id.String(),
			URL:         "https://example.com/" + id.String(),
			PublishedAt: testDay.Add(-time.Hour),
		})
	}
	return items
}

type fakeSource struct {
	items []domain.RawItem
	err   error
	// afterFetch runs once the items are handed out.
	afterFetch func()
}

func (s *fakeSource) Fetch(_ context.Context, _ time.Time, limit int) ([]domain.RawItem, error) {
	if s.afterFetch != nil {
		defer s.afterFetch()
	}
	if s.err != nil {
		return nil, s.err
	}
	if len(s.items) > limit {
		return s.items[:limit], nil
	}
	return s.items, nil
}

// fakeTranslation prefixes titles with "译 " and fails for titles in fail.
type fakeTranslation struct {
	fail  map[string]bool
	calls atomic.Int32
}

func (f *fakeTranslation) Translate(ctx context.Context, text, _, _ string) (string, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.fail[text] {
		return "", errors.New("service unavailable")
	}
	return "译 " + text, nil
}

// memStore is an in-memory document store with integer versions.
type memStore struct {
	mu       sync.Mutex
	docs     map[string]string
	versions map[string]int
	writes   int
	getErr   error

	// onUpdate runs before every Update is applied.
	onUpdate func(s *memStore, path string)
	// conflictAlways rejects every Update.
	conflictAlways bool
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]string{}, versions: map[string]int{}}
}

func (s *memStore) put(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = content
	s.versions[path]++
}

func (s *memStore) content(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[path]
}

func (s *memStore) Get(_ context.Context, path string) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return domain.Document{}, s.getErr
	}
	content, ok := s.docs[path]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return domain.Document{Path: path, Content: content, Version: domain.Version(strconv.Itoa(s.versions[path]))}, nil
}

func (s *memStore) Create(_ context.Context, path, content string) (domain.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; ok {
		return "", domain.ErrDocumentExists
	}
	s.docs[path] = content
	s.versions[path] = 1
	s.writes++
	return "1", nil
}

func (s *memStore) Update(_ context.Context, path, content string, version domain.Version) (domain.Version, error) {
	if s.onUpdate != nil {
		s.onUpdate(s, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictAlways || string(version) != strconv.Itoa(s.versions[path]) {
		return "", domain.ErrVersionConflict
	}
	s.docs[path] = content
	s.versions[path]++
	s.writes++
	return domain.Version(strconv.Itoa(s.versions[path])), nil
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (func(), error) {
	return nil, domain.ErrLockHeld
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.messages = append(n.messages, digest)
	return n.err
}
