package release

import (
	"context"
	"log/slog"

	apperrors "git.home.luguber.info/inful/shipit/internal/errors"
	"git.home.luguber.info/inful/shipit/internal/logfields"
	"git.home.luguber.info/inful/shipit/internal/npm"
	"git.home.luguber.info/inful/shipit/internal/task"
)

// Skip reasons surfaced by the tag-push stage. "no upstream" is checked
// first; it holds independent of the publish outcome.
const (
	skipNoUpstream       = "no upstream"
	skipPublishNotDone   = "publish was not successful, not pushing tags"
	skipPackagePrivate   = "package is private"
	skipTwoFactorInPlace = "two-factor authentication already configured"
)

// buildPipeline assembles the fixed stage order. Section inclusion is a
// pure function of the options, decided here once; the stages' own Enabled
// and Skip predicates stay lazy.
func (r *Releaser) buildPipeline(desc *npm.PackageDescriptor, nextVersion string) *task.Pipeline {
	opts := r.opts
	pmSelected := opts.Yarn != nil

	p := task.NewPipeline()

	p.Append(task.Stage{
		Title:  "Prerequisite check",
		Action: r.checkPrerequisites(desc, nextVersion),
	})
	p.Append(task.Stage{
		Title:  "Git check",
		Action: r.checkGit,
	})
	p.AppendIf(opts.Cleanup && pmSelected, task.Stage{
		Title:  "Cleanup",
		Action: r.cleanup,
	})
	p.AppendIf(opts.Cleanup && pmSelected, task.Stage{
		Title:  "Installing dependencies",
		Action: r.install,
	})
	p.AppendIf(opts.Tests, task.Stage{
		Title:  "Running tests",
		Action: r.runTests,
	})
	p.Append(task.Stage{
		Title:  "Bumping version",
		Action: r.bump(nextVersion),
	})
	p.AppendIf(opts.Publish, task.Stage{
		Title: "Publishing package",
		Skip: func(*task.RunContext) string {
			if desc.Private {
				return skipPackagePrivate
			}
			return ""
		},
		Action: r.publish,
	})
	p.AppendIf(opts.Publish, task.Stage{
		Title: "Enabling two-factor authentication",
		Enabled: func() bool {
			// Re-checked at run time: the publish stage must actually
			// have succeeded for registry access settings to exist.
			return !desc.Private && r.state.Published()
		},
		Skip: func(*task.RunContext) string {
			if opts.TwoFactorExists {
				return skipTwoFactorInPlace
			}
			return ""
		},
		Action: r.enableTwoFactor(desc.Name),
	})
	p.Append(task.Stage{
		Title: "Pushing tags",
		Skip:  r.tagPushSkip,
		Action: func(ctx context.Context, _ *task.RunContext) error {
			if err := r.git.Push(ctx); err != nil {
				return apperrors.GitOperationFailed("push", err)
			}
			return nil
		},
	})
	p.AppendIf(opts.ReleaseDraft && IsGitHubURL(opts.RepoURL), task.Stage{
		Title:  "Drafting release",
		Action: r.draftRelease,
	})

	return p
}

// checkPrerequisites validates the state nothing has mutated yet: a private
// package cannot be published, and a descriptor without a resolvable
// version never makes it this far.
func (r *Releaser) checkPrerequisites(desc *npm.PackageDescriptor, nextVersion string) func(context.Context, *task.RunContext) error {
	return func(_ context.Context, rc *task.RunContext) error {
		rc.NewVersion = nextVersion
		if desc.Private && r.opts.Publish {
			slog.Warn("Package is private, publish will be skipped", logfields.Package(desc.Name))
		}
		return nil
	}
}

// checkGit stops the run before anything changes when the working tree is
// dirty: the bump commit must contain only the version change.
func (r *Releaser) checkGit(_ context.Context, _ *task.RunContext) error {
	clean, err := r.git.IsClean()
	if err != nil {
		return apperrors.PrereqFailed("working tree status", err)
	}
	if !clean {
		return apperrors.DirtyWorkingTree()
	}
	if _, err := r.git.CurrentBranch(); err != nil {
		return apperrors.PrereqFailed("current branch", err)
	}
	return nil
}

func (r *Releaser) cleanup(_ context.Context, _ *task.RunContext) error {
	if r.clean == nil {
		return nil
	}
	if err := r.clean(); err != nil {
		return apperrors.InstallFailed(err)
	}
	return nil
}

func (r *Releaser) install(ctx context.Context, rc *task.RunContext) error {
	return r.pm.CleanInstall(ctx, rc.Emit)
}

func (r *Releaser) runTests(ctx context.Context, rc *task.RunContext) error {
	return r.pm.RunTests(ctx, rc.Emit)
}

func (r *Releaser) bump(nextVersion string) func(context.Context, *task.RunContext) error {
	return func(ctx context.Context, rc *task.RunContext) error {
		return r.pm.Bump(ctx, nextVersion, rc.Emit)
	}
}

// publish runs the publish command; on failure rollback is invoked
// synchronously before the wrapped error propagates, and the publish state
// stays false.
func (r *Releaser) publish(ctx context.Context, rc *task.RunContext) error {
	err := r.pm.Publish(ctx, rc.OTP, rc.Emit)
	if err == nil {
		r.state.MarkPublished()
		return nil
	}

	out := r.rollback.Invoke()
	if out.Failed {
		return apperrors.PublishFailedRollbackFailed(err, out.Message)
	}
	return apperrors.PublishFailedRolledBack(err)
}

func (r *Releaser) enableTwoFactor(pkg string) func(context.Context, *task.RunContext) error {
	return func(ctx context.Context, rc *task.RunContext) error {
		return r.pm.RequireTwoFactor(ctx, pkg, rc.Emit)
	}
}

// tagPushSkip converts missing-upstream and unsuccessful-publish conditions
// into skip reasons rather than errors. A query failure yields no skip; the
// push itself will surface it.
func (r *Releaser) tagPushSkip(*task.RunContext) string {
	branch, err := r.git.CurrentBranch()
	if err == nil {
		has, upErr := r.git.HasUpstream(branch)
		if upErr == nil && !has {
			return skipNoUpstream
		}
	}
	if r.opts.Publish && !r.state.Published() {
		return skipPublishNotDone
	}
	return ""
}

func (r *Releaser) draftRelease(_ context.Context, rc *task.RunContext) error {
	url, err := DraftURL(r.opts.RepoURL, r.TagName(rc.NewVersion))
	if err != nil {
		return apperrors.DraftFailed(err)
	}
	rc.Emit("Open the prefilled release draft: " + url)
	slog.Info("Release draft ready", "url", url)
	return nil
}
