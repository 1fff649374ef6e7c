package github

import (
	"context"
	"fmt"
	"log/slog"

	gh "github.com/google/go-github/v82/github"
	"github.com/google/uuid"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// proposalBranchPrefix names the branches created for template pull requests.
const proposalBranchPrefix = "update-template-"

// CreateChangeProposal creates a branch off the target branch, commits every
// change to it and opens a pull request back into the target branch.
func (c *Client) CreateChangeProposal(ctx context.Context, proposal model.ChangeProposal) (string, error) {
	if len(proposal.Changes) == 0 {
		return "", nil
	}

	base, err := c.targetBranch(ctx)
	if err != nil {
		return "", err
	}

	ref, resp, err := c.gh.Git.GetRef(ctx, c.opts.Owner, c.opts.Repo, "heads/"+base)
	if err != nil {
		return "", remoteError("proposal", base, resp, err)
	}
	logRateLimit(resp, c.FullName()+"/git/ref", 0, 1)

	branch := proposalBranchPrefix + uuid.NewString()
	_, resp, err = c.gh.Git.CreateRef(ctx, c.opts.Owner, c.opts.Repo, gh.CreateRef{
		Ref: "refs/heads/" + branch,
		SHA: ref.GetObject().GetSHA(),
	})
	if err != nil {
		return "", remoteError("proposal", branch, resp, err)
	}

	for _, change := range proposal.Changes {
		if err := c.commitChange(ctx, branch, change); err != nil {
			return "", fmt.Errorf("committing %s to %s: %w", change.Path, branch, err)
		}
	}

	pr, resp, err := c.gh.PullRequests.Create(ctx, c.opts.Owner, c.opts.Repo, &gh.NewPullRequest{
		Title:               gh.Ptr(proposal.Title),
		Head:                gh.Ptr(branch),
		Base:                gh.Ptr(base),
		Body:                gh.Ptr(proposal.Body),
		MaintainerCanModify: gh.Ptr(true),
	})
	if err != nil {
		return "", remoteError("proposal", branch, resp, err)
	}
	logRateLimit(resp, c.FullName()+"/pulls", 0, 1)

	slog.Info("pull request opened", "repo", c.FullName(), "branch", branch, "number", pr.GetNumber())
	return pr.GetHTMLURL(), nil
}

func (c *Client) commitChange(ctx context.Context, branch string, change model.FileChange) error {
	if change.Delete {
		err := c.deleteAt(ctx, change.Path, branch, "Remove "+change.Path)
		if model.IsNotFound(err) {
			return nil
		}
		return err
	}
	_, err := c.writeAt(ctx, change.Path, change.Content, "", branch, "Update "+change.Path)
	return err
}
