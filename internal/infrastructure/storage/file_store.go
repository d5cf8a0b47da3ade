package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

// FileStore keeps documents under a local directory, e.g. a checked-out
// site. The version is the SHA-256 of the content.
type FileStore struct {
	root string
	mu   sync.Mutex
}

var _ ports.DocumentStore = (*FileStore)(nil)

// NewFileStore roots the store at dir.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file store root is not configured")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return &FileStore{root: abs}, nil
}

// Get reads the file at path.
func (s *FileStore) Get(_ context.Context, path string) (domain.Document, error) {
	full, err := s.resolve(path)
	if err != nil {
		return domain.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.Document{Path: path, Content: string(raw), Version: contentVersion(raw)}, nil
}

// Create writes a new file, failing with domain.ErrDocumentExists if present.
func (s *FileStore) Create(_ context.Context, path, content string) (domain.Version, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", path, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("create %s: %w", path, domain.ErrDocumentExists)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return contentVersion([]byte(content)), nil
}

// Update replaces the file through a rename if its content hash matches version.
func (s *FileStore) Update(_ context.Context, path, content string, version domain.Version) (domain.Version, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("update %s: %w", path, domain.ErrVersionConflict)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if contentVersion(current) != version {
		return "", fmt.Errorf("update %s: %w", path, domain.ErrVersionConflict)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".hacknews-*")
	if err != nil {
		return "", fmt.Errorf("temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("replace %s: %w", path, err)
	}

	return contentVersion([]byte(content)), nil
}

func (s *FileStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes store root", path)
	}
	return filepath.Join(s.root, clean), nil
}

func contentVersion(raw []byte) domain.Version {
	sum := sha256.Sum256(raw)
	return domain.Version(hex.EncodeToString(sum[:]))
}
