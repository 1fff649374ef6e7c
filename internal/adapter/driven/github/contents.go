package github

import (
	"context"
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	gh "github.com/google/go-github/v82/github"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// Read returns the blob stored at path on the target branch.
func (c *Client) Read(ctx context.Context, path string) (model.RemoteFile, error) {
	branch, err := c.targetBranch(ctx)
	if err != nil {
		return model.RemoteFile{}, err
	}
	return c.readAt(ctx, c.opts.Owner, c.opts.Repo, path, branch)
}

func (c *Client) readAt(ctx context.Context, owner, repo, path, ref string) (model.RemoteFile, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return model.RemoteFile{}, remoteError("read", path, resp, err)
	}
	logRateLimit(resp, owner+"/"+repo+"/contents", 0, 1)

	if file == nil {
		return model.RemoteFile{}, &model.RemoteError{Op: "read", Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	content, err := file.GetContent()
	if err != nil {
		return model.RemoteFile{}, &model.RemoteError{Op: "read", Path: path, Err: fmt.Errorf("decoding content: %w", err)}
	}

	return model.RemoteFile{
		Path:      path,
		Content:   []byte(content),
		Signature: file.GetSHA(),
	}, nil
}

// Write creates or updates the blob at path. Content that already matches
// the remote signature is not committed again.
func (c *Client) Write(ctx context.Context, path string, content []byte, knownSignature string) (string, error) {
	branch, err := c.targetBranch(ctx)
	if err != nil {
		return "", err
	}
	return c.writeAt(ctx, path, content, knownSignature, branch, "Publish "+path)
}

func (c *Client) writeAt(ctx context.Context, path string, content []byte, knownSignature, branch, message string) (string, error) {
	newSig := blobSHA(content)

	current := knownSignature
	if current == "" {
		file, err := c.readAt(ctx, c.opts.Owner, c.opts.Repo, path, branch)
		switch {
		case err == nil:
			current = file.Signature
		case model.IsNotFound(err):
		default:
			return "", err
		}
	}

	if current == newSig {
		slog.Debug("remote content unchanged", "path", path, "sha", newSig)
		return newSig, nil
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
		Branch:  gh.Ptr(branch),
	}

	var (
		res  *gh.RepositoryContentResponse
		resp *gh.Response
		err  error
	)
	if current == "" {
		res, resp, err = c.gh.Repositories.CreateFile(ctx, c.opts.Owner, c.opts.Repo, path, opts)
	} else {
		opts.SHA = gh.Ptr(current)
		res, resp, err = c.gh.Repositories.UpdateFile(ctx, c.opts.Owner, c.opts.Repo, path, opts)
	}
	if err != nil {
		if knownSignature != "" && isConflict(resp, err) {
			return "", fmt.Errorf("writing %s: %w", path, model.ErrConflict)
		}
		return "", remoteError("write", path, resp, err)
	}
	logRateLimit(resp, c.FullName()+"/contents", 0, 1)

	if sha := res.GetContent().GetSHA(); sha != "" {
		return sha, nil
	}
	return newSig, nil
}

// Delete removes the blob at path on the target branch.
func (c *Client) Delete(ctx context.Context, path string) error {
	branch, err := c.targetBranch(ctx)
	if err != nil {
		return err
	}
	return c.deleteAt(ctx, path, branch, "Delete "+path)
}

func (c *Client) deleteAt(ctx context.Context, path, branch, message string) error {
	file, err := c.readAt(ctx, c.opts.Owner, c.opts.Repo, path, branch)
	if err != nil {
		return err
	}

	_, resp, err := c.gh.Repositories.DeleteFile(ctx, c.opts.Owner, c.opts.Repo, path, &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		SHA:     gh.Ptr(file.Signature),
		Branch:  gh.Ptr(branch),
	})
	if err != nil {
		return remoteError("delete", path, resp, err)
	}
	logRateLimit(resp, c.FullName()+"/contents", 0, 1)
	return nil
}

// blobSHA computes the git blob object id GitHub reports for content.
func blobSHA(content []byte) string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
