package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

// GCSStore keeps documents as bucket objects; the object generation is the version.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

var _ ports.DocumentStore = (*GCSStore)(nil)

// NewGCSStore opens a storage client for cfg.Bucket.
func NewGCSStore(ctx context.Context, cfg config.GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is not configured")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return NewGCSStoreWithClient(client, cfg.Bucket), nil
}

// NewGCSStoreWithClient uses an existing client; Close closes it.
func NewGCSStoreWithClient(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: client.Bucket(bucket)}
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Get reads the object and its generation.
func (s *GCSStore) Get(ctx context.Context, path string) (domain.Document, error) {
	r, err := s.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("open object %s: %w", path, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read object %s: %w", path, err)
	}

	return domain.Document{
		Path:    path,
		Content: string(raw),
		Version: generationVersion(r.Attrs.Generation),
	}, nil
}

// Create writes the object only if it does not exist yet.
func (s *GCSStore) Create(ctx context.Context, path, content string) (domain.Version, error) {
	obj := s.bucket.Object(path).If(storage.Conditions{DoesNotExist: true})
	gen, err := s.write(ctx, obj, content)
	if isPreconditionFailed(err) {
		return "", fmt.Errorf("create %s: %w", path, domain.ErrDocumentExists)
	}
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	return generationVersion(gen), nil
}

// Update replaces the object only if its generation still matches version.
func (s *GCSStore) Update(ctx context.Context, path, content string, version domain.Version) (domain.Version, error) {
	gen, err := parseGeneration(version)
	if err != nil {
		return "", fmt.Errorf("update %s: %w", path, err)
	}

	obj := s.bucket.Object(path).If(storage.Conditions{GenerationMatch: gen})
	newGen, err := s.write(ctx, obj, content)
	if isPreconditionFailed(err) {
		return "", fmt.Errorf("update %s: %w", path, domain.ErrVersionConflict)
	}
	if err != nil {
		return "", fmt.Errorf("update %s: %w", path, err)
	}
	return generationVersion(newGen), nil
}

func (s *GCSStore) write(ctx context.Context, obj *storage.ObjectHandle, content string) (int64, error) {
	w := obj.NewWriter(ctx)
	w.ContentType = "text/markdown; charset=utf-8"
	w.CacheControl = "no-cache"

	if _, err := io.Copy(w, strings.NewReader(content)); err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return w.Attrs().Generation, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

func generationVersion(gen int64) domain.Version {
	return domain.Version(strconv.FormatInt(gen, 10))
}

func parseGeneration(version domain.Version) (int64, error) {
	gen, err := strconv.ParseInt(string(version), 10, 64)
	if err != nil || gen <= 0 {
		return 0, fmt.Errorf("%w: malformed generation %q", domain.ErrVersionConflict, version)
	}
	return gen, nil
}
