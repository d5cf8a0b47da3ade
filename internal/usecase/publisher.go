package usecase

import (
	"context"
	"errors"
	"fmt"

	"HackNewsBot/internal/document"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

// Publisher performs the single write of a cycle against the state it was
// computed from. It never retries; a domain.ErrVersionConflict tells the
// caller to read the document again and recompute the merge.
type Publisher struct {
	store ports.DocumentStore
}

// NewPublisher wires the document store.
func NewPublisher(store ports.DocumentStore) *Publisher {
	return &Publisher{store: store}
}

// Publish creates the document from fragment when state says it is absent,
// otherwise appends fragment to state.Content guarded by state.Version.
func (p *Publisher) Publish(ctx context.Context, state domain.DocumentState, fragment string) (domain.Version, error) {
	if !state.Exists {
		version, err := p.store.Create(ctx, state.Path, fragment)
		if errors.Is(err, domain.ErrDocumentExists) {
			return "", fmt.Errorf("%w: %w", domain.ErrVersionConflict, err)
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", state.Path, err)
		}
		return version, nil
	}

	version, err := p.store.Update(ctx, state.Path, document.Append(state.Content, fragment), state.Version)
	if errors.Is(err, domain.ErrVersionConflict) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("update %s: %w", state.Path, err)
	}
	return version, nil
}
