// Package github implements the remote repository ports using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.RemoteRepository = (*Client)(nil)
	_ driven.TemplateSource   = (*Client)(nil)
	_ driven.ThemeCatalog     = (*Client)(nil)
)

// requestTimeout bounds every GitHub API call made through NewClient.
const requestTimeout = 30 * time.Second

// Options identifies the repositories the client works against.
type Options struct {
	Owner  string
	Repo   string
	Branch string // Empty means the repository default branch.

	// TemplateRepo is the upstream site template in owner/repo form.
	TemplateRepo string
}

// Client implements the remote repository ports on top of the GitHub REST API.
type Client struct {
	gh   *gh.Client
	opts Options

	mu       sync.Mutex
	branch   string
	themes   []model.Theme
	themesAt time.Time
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag caching; site repository reads always revalidate)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// An empty token yields an anonymous client, enough for public reads.
func NewClient(token string, opts Options) *Client {
	rateLimitClient := github_ratelimit.NewClient(NewCachingTransport(nil))
	rateLimitClient.Timeout = requestTimeout
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client, opts: opts, branch: opts.Branch}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// It is used for GitHub Enterprise endpoints and to inject an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, opts Options) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, opts: opts, branch: opts.Branch}, nil
}

// FullName returns the target repository in owner/repo form.
func (c *Client) FullName() string {
	return c.opts.Owner + "/" + c.opts.Repo
}

// targetBranch returns the configured branch, resolving and caching the
// repository default branch when none is configured.
func (c *Client) targetBranch(ctx context.Context) (string, error) {
	c.mu.Lock()
	branch := c.branch
	c.mu.Unlock()
	if branch != "" {
		return branch, nil
	}

	repo, resp, err := c.gh.Repositories.Get(ctx, c.opts.Owner, c.opts.Repo)
	if err != nil {
		return "", remoteError("resolve branch", c.FullName(), resp, err)
	}
	logRateLimit(resp, c.FullName(), 0, 1)

	branch = repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	c.mu.Lock()
	c.branch = branch
	c.mu.Unlock()
	return branch, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// remoteError maps a go-github failure onto the domain error taxonomy: 404
// becomes model.ErrNotFound, everything else a *model.RemoteError.
func remoteError(op, path string, resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", op, path, model.ErrNotFound)
	}

	re := &model.RemoteError{Op: op, Path: path, Err: err}
	if resp != nil {
		re.StatusCode = resp.StatusCode
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		re.RateLimited = true
	}
	return re
}

// isConflict reports whether the API rejected a write because the supplied
// blob sha is stale.
func isConflict(resp *gh.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusConflict {
		return true
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
		return strings.Contains(strings.ToLower(ghErr.Message), "sha")
	}
	return false
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
