package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGitHub(t *testing.T, handler http.Handler) *GitHub {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	g, err := NewGitHub("", "cherie/antigravity-notes", "main", WithGitHubClient(client))
	require.NoError(t, err)
	return g
}

func TestGitHubPublishCreatesNewFile(t *testing.T) {
	var created struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}
	g := newTestGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"content":{"sha":"abc"}}`))
		}
	}))

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	err := g.Publish(context.Background(), "MarketMonitor", "# hello", date)
	require.NoError(t, err)

	assert.Equal(t, "Update MarketMonitor/2026-02-03.md", created.Message)
	assert.Equal(t, "main", created.Branch)
	assert.Empty(t, created.SHA, "new files carry no blob sha")

	decoded, err := base64.StdEncoding.DecodeString(created.Content)
	require.NoError(t, err)
	assert.Equal(t, "# hello", string(decoded))
}

func TestGitHubPublishUpdatesExistingFile(t *testing.T) {
	var updated struct {
		SHA string `json:"sha"`
	}
	g := newTestGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"type":"file","name":"2026-02-03.md","sha":"oldsha123","path":"obsidian-content/MarketMonitor/2026-02-03.md"}`))
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			w.Write([]byte(`{"content":{"sha":"newsha"}}`))
		}
	}))

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	err := g.Publish(context.Background(), "MarketMonitor", "# updated", date)
	require.NoError(t, err)

	assert.Equal(t, "oldsha123", updated.SHA, "updates must carry the existing blob sha")
}

func TestGitHubPublishAPIFailure(t *testing.T) {
	g := newTestGitHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))

	err := g.Publish(context.Background(), "MarketMonitor", "x", time.Now())
	assert.Error(t, err)
}

func TestNewGitHubValidatesRepo(t *testing.T) {
	_, err := NewGitHub("tok", "not-a-repo", "main")
	assert.Error(t, err)

	_, err = NewGitHub("", "a/b", "main")
	assert.Error(t, err, "token required without an injected client")
}

func TestLocalPublish(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, nil)

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	path, err := l.Publish("Momentum50", "# list", date)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Momentum50", "2026-02-03.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# list", string(data))
}
