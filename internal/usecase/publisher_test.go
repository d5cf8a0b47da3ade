package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HackNewsBot/internal/document"
	"HackNewsBot/internal/domain"
)

const testPath = "_posts/2026-10-18-hacknews.md"

func TestPublishCreatesAbsentDocument(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	p := NewPublisher(store)

	_, err := p.Publish(context.Background(), domain.DocumentState{Path: testPath}, "fragment\n")
	require.NoError(t, err)
	assert.Equal(t, "fragment\n", store.content(testPath))
}

func TestPublishCreateRaceIsConflict(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(testPath, "someone else\n")
	p := NewPublisher(store)

	_, err := p.Publish(context.Background(), domain.DocumentState{Path: testPath}, "fragment\n")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, "someone else\n", store.content(testPath))
}

func TestPublishAppendsWithVersion(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(testPath, "head\n")
	reader := document.NewStateReader(store)
	state, err := reader.Read(context.Background(), testPath)
	require.NoError(t, err)

	_, err = NewPublisher(store).Publish(context.Background(), state, "tail\n")
	require.NoError(t, err)
	assert.Equal(t, "head\ntail\n", store.content(testPath))
}

func TestPublishStaleVersionLeavesContent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.put(testPath, "head\n")
	state, err := document.NewStateReader(store).Read(context.Background(), testPath)
	require.NoError(t, err)

	store.put(testPath, "head\nother\n")

	_, err = NewPublisher(store).Publish(context.Background(), state, "tail\n")
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.Equal(t, "head\nother\n", store.content(testPath))
}
