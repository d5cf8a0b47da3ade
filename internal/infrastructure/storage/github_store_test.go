package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HackNewsBot/internal/config"
	"HackNewsBot/internal/domain"
)

// contentsAPI emulates the subset of the repository contents API the store uses.
type contentsAPI struct {
	mu       sync.Mutex
	files    map[string]string
	shas     map[string]string
	seq      int
	messages []string
}

func newContentsAPI() *contentsAPI {
	return &contentsAPI{files: map[string]string{}, shas: map[string]string{}}
}

func (c *contentsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	const prefix = "/repos/owner/blog/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		content, ok := c.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"encoding": "base64",
			"path":     path,
			"sha":      c.shas[path],
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	case http.MethodPut:
		var body struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		current, exists := c.shas[path]
		switch {
		case exists && body.SHA == "":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`))
			return
		case exists && body.SHA != current, !exists && body.SHA != "":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"does not match"}`))
			return
		}
		raw, _ := base64.StdEncoding.DecodeString(body.Content)
		c.seq++
		sha := fmt.Sprintf("sha-%d", c.seq)
		c.files[path] = string(raw)
		c.shas[path] = sha
		c.messages = append(c.messages, body.Message)
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"sha": sha, "path": path}})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newGitHubStore(t *testing.T, api *contentsAPI) *GitHubStore {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	store, err := NewGitHubStore(client, config.GitHubConfig{Repo: "owner/blog"})
	require.NoError(t, err)
	return store
}

func TestGitHubStoreLifecycle(t *testing.T) {
	t.Parallel()

	api := newContentsAPI()
	store := newGitHubStore(t, api)
	ctx := context.Background()
	path := "_posts/2026-10-18-hacknews.md"

	_, err := store.Get(ctx, path)
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)

	v1, err := store.Create(ctx, path, "first\n")
	require.NoError(t, err)
	assert.Equal(t, domain.Version("sha-1"), v1)

	doc, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", doc.Content)
	assert.Equal(t, v1, doc.Version)

	v2, err := store.Update(ctx, path, "first\nsecond\n", v1)
	require.NoError(t, err)
	assert.Equal(t, domain.Version("sha-2"), v2)

	_, err = store.Update(ctx, path, "lost update\n", v1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = store.Create(ctx, path, "again\n")
	require.ErrorIs(t, err, domain.ErrDocumentExists)

	doc, err = store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", doc.Content)
	assert.Equal(t, []string{createMessage, updateMessage}, api.messages)
}

func TestNewGitHubStoreValidatesRepo(t *testing.T) {
	t.Parallel()

	for _, repo := range []string{"", "owner", "owner/", "/blog", "a/b/c"} {
		_, err := NewGitHubStore(nil, config.GitHubConfig{Repo: repo})
		assert.Error(t, err, repo)
	}
}
