package document

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

// StateReader loads a published document and the ids it already lists.
type StateReader struct {
	store ports.DocumentStore
}

// NewStateReader wires the document store.
func NewStateReader(store ports.DocumentStore) *StateReader {
	return &StateReader{store: store}
}

// Read returns the document state at path. A missing document is reported
// through Exists=false with an empty id set, not as an error.
func (r *StateReader) Read(ctx context.Context, path string) (domain.DocumentState, error) {
	doc, err := r.store.Get(ctx, path)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.DocumentState{Path: path, KnownIDs: domain.IDSet{}}, nil
	}
	if err != nil {
		return domain.DocumentState{}, fmt.Errorf("read document %s: %w", path, err)
	}

	return domain.DocumentState{
		Path:     path,
		Exists:   true,
		Content:  doc.Content,
		Version:  doc.Version,
		KnownIDs: KnownIDs(doc.Content),
	}, nil
}

// KnownIDs scans the link lines of a rendered document. Front matter and
// translation lines are skipped, and entries without a recoverable id are
// ignored. An entry missing its translation line does not hide the next one.
func KnownIDs(content string) domain.IDSet {
	ids := domain.IDSet{}
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	first := true
	inFrontMatter := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			first = false
			if strings.TrimSpace(line) == "---" {
				inFrontMatter = true
				continue
			}
		}
		if inFrontMatter {
			if strings.TrimSpace(line) == "---" {
				inFrontMatter = false
			}
			continue
		}
		if !isLinkLine(line) {
			continue
		}
		if id, ok := EntryID(line); ok {
			ids.Add(id)
		}
	}

	return ids
}
