package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v82/github"
)

// ValidateToken verifies that token can access the target repository with
// push permission and returns the authenticated login. It uses a one-shot
// client so the receiver's credentials are left untouched.
func (c *Client) ValidateToken(ctx context.Context, token string) (string, error) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	tempClient := gh.NewClient(httpClient).WithAuthToken(token)
	tempClient.BaseURL = c.gh.BaseURL

	user, _, err := tempClient.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}

	repo, resp, err := tempClient.Repositories.Get(ctx, c.opts.Owner, c.opts.Repo)
	if err != nil {
		return "", fmt.Errorf("token cannot access %s: %w", c.FullName(), remoteError("validate", c.FullName(), resp, err))
	}
	if perms := repo.GetPermissions(); perms != nil && !perms.GetPush() {
		return "", fmt.Errorf("token for %s has no push access to %s", user.GetLogin(), c.FullName())
	}

	return user.GetLogin(), nil
}
