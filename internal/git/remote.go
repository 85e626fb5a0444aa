package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/shipit/internal/logfields"
	gogit "github.com/go-git/go-git/v5"
)

// HasUpstream reports whether branch is configured with an upstream to push
// to. Without one, "push" has no destination.
func (c *Client) HasUpstream(branch string) (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}
	cfg, err := repo.Config()
	if err != nil {
		return false, fmt.Errorf("failed to read repository config: %w", err)
	}
	b, ok := cfg.Branches[branch]
	return ok && b.Remote != "" && b.Merge != "", nil
}

// Push pushes the current branch together with the tags that point at pushed
// commits. Transient remote failures are retried per the client's policy; a
// permanent failure surfaces the classified error of the last attempt.
func (c *Client) Push(ctx context.Context) error {
	repo, err := c.open()
	if err != nil {
		return err
	}
	auth, err := c.getAuthentication()
	if err != nil {
		return fmt.Errorf("failed to setup authentication: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.policy.Delay(attempt)
			slog.Warn("Retrying push", "attempt", attempt, "delay", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := repo.PushContext(ctx, &gogit.PushOptions{
			RemoteName: "origin",
			FollowTags: true,
			Auth:       auth,
		})
		if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			slog.Info("Pushed to remote", logfields.Branch("origin"))
			return nil
		}

		lastErr = classifyPushError(err)
		if isPermanentPushError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
