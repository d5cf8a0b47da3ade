package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

const (
	createMessage = "Create Hacknews post"
	updateMessage = "Update Hacknews post"
)

// GitHubStore keeps documents as files of a repository; the blob SHA is the version.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

var _ ports.DocumentStore = (*GitHubStore)(nil)

// NewGitHubStore addresses cfg.Repo ("owner/name"). A nil client is built from
// cfg.Token and cfg.BaseURL.
func NewGitHubStore(client *github.Client, cfg config.GitHubConfig) (*GitHubStore, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(cfg.Repo), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("github repo must be owner/name, got %q", cfg.Repo)
	}

	if client == nil {
		client = github.NewClient(nil)
		if cfg.Token != "" {
			client = client.WithAuthToken(cfg.Token)
		}
		if cfg.BaseURL != "" {
			var err error
			client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
			if err != nil {
				return nil, fmt.Errorf("github base url: %w", err)
			}
		}
	}

	return &GitHubStore{client: client, owner: owner, repo: repo, branch: cfg.Branch}, nil
}

// Get downloads the file at path.
func (s *GitHubStore) Get(ctx context.Context, path string) (domain.Document, error) {
	var opts *github.RepositoryContentGetOptions
	if s.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: s.branch}
	}

	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		if statusOf(resp, err) == http.StatusNotFound {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("get contents %s: %w", path, err)
	}
	if file == nil {
		return domain.Document{}, fmt.Errorf("get contents %s: path is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return domain.Document{}, fmt.Errorf("decode contents %s: %w", path, err)
	}

	return domain.Document{Path: path, Content: content, Version: domain.Version(file.GetSHA())}, nil
}

// Create commits a new file; an existing file yields domain.ErrDocumentExists.
func (s *GitHubStore) Create(ctx context.Context, path, content string) (domain.Version, error) {
	res, resp, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, s.fileOptions(createMessage, content, ""))
	if err != nil {
		switch statusOf(resp, err) {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return "", fmt.Errorf("create %s: %w", path, domain.ErrDocumentExists)
		}
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	return versionOf(res), nil
}

// Update commits content over the blob identified by version.
func (s *GitHubStore) Update(ctx context.Context, path, content string, version domain.Version) (domain.Version, error) {
	res, resp, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, s.fileOptions(updateMessage, content, version))
	if err != nil {
		switch statusOf(resp, err) {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return "", fmt.Errorf("update %s: %w", path, domain.ErrVersionConflict)
		}
		return "", fmt.Errorf("update %s: %w", path, err)
	}
	return versionOf(res), nil
}

func (s *GitHubStore) fileOptions(message, content string, version domain.Version) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
	}
	if version != "" {
		opts.SHA = github.String(string(version))
	}
	if s.branch != "" {
		opts.Branch = github.String(s.branch)
	}
	return opts
}

func versionOf(res *github.RepositoryContentResponse) domain.Version {
	if res == nil || res.Content == nil {
		return ""
	}
	return domain.Version(res.Content.GetSHA())
}

func statusOf(resp *github.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}
