package git

import (
	"fmt"
	"log/slog"

	gogit "github.com/go-git/go-git/v5"
)

// CurrentBranch returns the short name of the branch HEAD points at, or an
// error on a detached HEAD.
func (c *Client) CurrentBranch() (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash().String()[:8])
	}
	return head.Name().Short(), nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (c *Client) IsClean() (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

// RemoveLastCommit hard-resets the current branch to the parent of HEAD,
// discarding the most recent commit and its working-tree changes.
func (c *Client) RemoveLastCommit() error {
	repo, err := c.open()
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("HEAD has no parent to reset to: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.Reset(&gogit.ResetOptions{Commit: parent.Hash, Mode: gogit.HardReset}); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", parent.Hash.String()[:8], err)
	}
	slog.Info("Last commit removed", "reset_to", parent.Hash.String()[:8])
	return nil
}
