package github

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// Manifest lists every blob on the target branch accepted by scope using one
// recursive tree request.
func (c *Client) Manifest(ctx context.Context, scope func(path string) bool) (model.Manifest, error) {
	branch, err := c.targetBranch(ctx)
	if err != nil {
		return nil, err
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, c.opts.Owner, c.opts.Repo, branch, true)
	if err != nil {
		// An empty repository has no tree yet.
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return model.Manifest{}, nil
		}
		return nil, remoteError("manifest", branch, resp, err)
	}
	logRateLimit(resp, c.FullName()+"/git/trees", 0, len(tree.Entries))

	if tree.GetTruncated() {
		slog.Warn("repository tree truncated; manifest is incomplete", "repo", c.FullName(), "entries", len(tree.Entries))
	}

	manifest := make(model.Manifest, len(tree.Entries))
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if scope != nil && !scope(entry.GetPath()) {
			continue
		}
		manifest[entry.GetPath()] = entry.GetSHA()
	}

	return manifest, nil
}
