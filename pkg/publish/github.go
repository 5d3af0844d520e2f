// Package publish pushes generated documents to their destinations: the
// GitHub notes repo, local storage, and chat.
package publish

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const contentRoot = "obsidian-content"

// GitHub upserts markdown documents into a content directory of a repo,
// one file per category and date.
type GitHub struct {
	client *github.Client
	logger *zap.Logger
	owner  string
	repo   string
	branch string
}

type GitHubOption func(*GitHub)

// WithGitHubLogger sets the structured logger.
func WithGitHubLogger(l *zap.Logger) GitHubOption {
	return func(g *GitHub) { g.logger = l }
}

// WithGitHubClient overrides the API client (tests).
func WithGitHubClient(c *github.Client) GitHubOption {
	return func(g *GitHub) { g.client = c }
}

// NewGitHub creates a publisher for "owner/name" on the given branch.
func NewGitHub(token, repo, branch string, opts ...GitHubOption) (*GitHub, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github repo must be owner/name, got %q", repo)
	}
	if branch == "" {
		branch = "main"
	}

	g := &GitHub{
		logger: zap.NewNop(),
		owner:  owner,
		repo:   name,
		branch: branch,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		if token == "" {
			return nil, fmt.Errorf("github token required")
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		g.client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}
	return g, nil
}

// Publish creates or updates obsidian-content/<category>/<date>.md. An
// existing file is updated in place using its blob SHA.
func (g *GitHub) Publish(ctx context.Context, category, content string, date time.Time) error {
	filename := date.Format("2006-01-02") + ".md"
	path := fmt.Sprintf("%s/%s/%s", contentRoot, category, filename)

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Update %s/%s", category, filename)),
		Content: []byte(content),
		Branch:  github.String(g.branch),
	}

	existing, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, opts)
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		_, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, opts)
	default:
		return fmt.Errorf("github: check %s: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("github: push %s: %w", path, err)
	}

	g.logger.Info("document pushed to github",
		zap.String("path", path),
		zap.String("branch", g.branch))
	return nil
}
