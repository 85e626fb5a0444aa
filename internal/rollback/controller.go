// Package rollback undoes a version bump when publishing fails. The
// controller is guarded: two independent call sites (the publish-failure
// handler and the exit safety net) may invoke it in the same run, and the
// destructive work happens at most once.
package rollback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gitclient "git.home.luguber.info/inful/shipit/internal/git"
	"git.home.luguber.info/inful/shipit/internal/logfields"
	"git.home.luguber.info/inful/shipit/internal/semver"
)

// GitOps is the subset of version-control operations rollback needs.
type GitOps interface {
	LatestTag(prefix string) (string, error)
	DeleteTag(name string) error
	RemoveLastCommit() error
}

// VersionReader returns the current on-disk package version. It must read
// from disk on every call: the bump stage mutates the descriptor during the
// run, and rollback must not trust a stale in-memory copy.
type VersionReader func() (string, error)

// Outcome is what every caller of the controller observes. Internal
// failures are carried here as a message, never as a propagated error:
// rollback must not crash the invoking context.
type Outcome struct {
	// RolledBack is true when the tag and bump commit were removed.
	RolledBack bool
	// Failed is true when rollback wanted to act but could not. A clean
	// no-op leaves both fields false.
	Failed bool
	// Message describes what happened, for logging and error wrapping.
	Message string
}

// Controller performs the guarded, at-most-once rollback.
type Controller struct {
	git          GitOps
	readVersion  VersionReader
	tagPrefix    string
	startVersion string

	once    sync.Once
	outcome Outcome
}

// NewController captures the run-start version so rollback can later tell a
// bump made by this run apart from pre-existing state.
func NewController(git GitOps, readVersion VersionReader, tagPrefix, startVersion string) *Controller {
	return &Controller{
		git:          git,
		readVersion:  readVersion,
		tagPrefix:    tagPrefix,
		startVersion: startVersion,
	}
}

// Invoke performs the rollback on the first call and returns its outcome;
// every later or concurrent call blocks until that first invocation has
// settled and observes the same outcome. A rollback in progress always runs
// to completion; it cannot be cancelled.
func (c *Controller) Invoke() Outcome {
	c.once.Do(func() {
		c.outcome = c.run()
		if c.outcome.Failed {
			slog.Error("Rollback failed", logfields.Reason(c.outcome.Message))
		} else if c.outcome.RolledBack {
			slog.Info("Rollback completed", logfields.Reason(c.outcome.Message))
		} else {
			slog.Debug("Rollback not needed", logfields.Reason(c.outcome.Message))
		}
	})
	return c.outcome
}

// run inspects version-control and descriptor state and undoes the bump
// only when this run made it: the latest tag must encode the current
// on-disk version, and that version must differ from the run-start one.
func (c *Controller) run() (outcome Outcome) {
	defer func() {
		// Rollback settles, whatever happens inside; it runs on the
		// process-shutdown path where a panic would mask the real failure.
		if r := recover(); r != nil {
			outcome = Outcome{Failed: true, Message: fmt.Sprintf("rollback panicked: %v", r)}
		}
	}()

	tag, err := c.git.LatestTag(c.tagPrefix)
	if err != nil {
		var noTags *gitclient.NoTagsError
		if errors.As(err, &noTags) {
			return Outcome{Message: "no version tags exist, nothing to roll back"}
		}
		return Outcome{Failed: true, Message: fmt.Sprintf("could not determine the latest tag: %v", err)}
	}
	tagVersion := semver.StripPrefix(tag, c.tagPrefix)

	diskVersion, err := c.readVersion()
	if err != nil {
		return Outcome{Failed: true, Message: fmt.Sprintf("could not read the package descriptor: %v", err)}
	}

	if diskVersion != tagVersion {
		return Outcome{Message: fmt.Sprintf("latest tag %s does not match the on-disk version %s, nothing to roll back", tag, diskVersion)}
	}
	if diskVersion == c.startVersion {
		return Outcome{Message: fmt.Sprintf("version %s is unchanged since the run started, nothing to roll back", diskVersion)}
	}

	if err := c.git.DeleteTag(tag); err != nil {
		return Outcome{Failed: true, Message: fmt.Sprintf("could not delete tag %s: %v", tag, err)}
	}
	if err := c.git.RemoveLastCommit(); err != nil {
		return Outcome{Failed: true, Message: fmt.Sprintf("deleted tag %s but could not remove the bump commit: %v", tag, err)}
	}
	return Outcome{RolledBack: true, Message: fmt.Sprintf("removed tag %s and the version bump commit", tag)}
}
