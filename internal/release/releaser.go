// Package release assembles and runs the release pipeline: the fixed stage
// order, the publish state, and the wiring between publish failures, the
// rollback controller and the exit safety net.
package release

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"git.home.luguber.info/inful/shipit/internal/config"
	apperrors "git.home.luguber.info/inful/shipit/internal/errors"
	"git.home.luguber.info/inful/shipit/internal/logfields"
	"git.home.luguber.info/inful/shipit/internal/npm"
	"git.home.luguber.info/inful/shipit/internal/rollback"
	"git.home.luguber.info/inful/shipit/internal/semver"
	"git.home.luguber.info/inful/shipit/internal/shutdown"
	"git.home.luguber.info/inful/shipit/internal/task"
)

// GitClient is the version-control surface the pipeline needs.
type GitClient interface {
	LatestTag(prefix string) (string, error)
	DeleteTag(name string) error
	RemoveLastCommit() error
	HasUpstream(branch string) (bool, error)
	CurrentBranch() (string, error)
	IsClean() (bool, error)
	Push(ctx context.Context) error
}

// PackageOps is the package-manager surface the pipeline needs.
type PackageOps interface {
	CleanInstall(ctx context.Context, onLine npm.LineFunc) error
	RunTests(ctx context.Context, onLine npm.LineFunc) error
	Bump(ctx context.Context, version string, onLine npm.LineFunc) error
	Publish(ctx context.Context, otp string, onLine npm.LineFunc) error
	RequireTwoFactor(ctx context.Context, pkg string, onLine npm.LineFunc) error
}

// DescriptorReader reads the package descriptor fresh from disk.
type DescriptorReader func() (*npm.PackageDescriptor, error)

// Cleaner removes installed dependencies ahead of a clean install.
type Cleaner func() error

// Releaser owns one release run.
type Releaser struct {
	opts           config.Options
	git            GitClient
	pm             PackageOps
	readDescriptor DescriptorReader
	clean          Cleaner
	shutdownReg    *shutdown.Registry
	executor       *task.Executor

	state    *PublishState
	rollback *rollback.Controller
	// settled flips when Run has returned. The shutdown hook initiates a
	// rollback only for a run killed mid-flight; once Run is back, every
	// rollback that was needed has already happened synchronously.
	settled atomic.Bool
}

// NewReleaser wires a releaser from its collaborators. reporter may be nil
// for slog-based progress, cleaner may be nil when cleanup is excluded.
func NewReleaser(
	opts config.Options,
	git GitClient,
	pm PackageOps,
	readDescriptor DescriptorReader,
	clean Cleaner,
	shutdownReg *shutdown.Registry,
	reporter task.Reporter,
) *Releaser {
	return &Releaser{
		opts:           opts,
		git:            git,
		pm:             pm,
		readDescriptor: readDescriptor,
		clean:          clean,
		shutdownReg:    shutdownReg,
		executor:       task.NewExecutor(reporter),
		state:          &PublishState{},
	}
}

// Run executes the whole release for the given version input (a bump
// keyword or an explicit version). On success the updated descriptor is
// returned; on publish failure the error surfaces after rollback has
// settled.
func (r *Releaser) Run(ctx context.Context, versionInput string) (*npm.PackageDescriptor, error) {
	defer r.settled.Store(true)

	desc, err := r.readDescriptor()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryConfig, apperrors.SeverityFatal, "failed to read package descriptor")
	}
	startVersion := desc.Version

	nextVersion, err := semver.Resolve(startVersion, versionInput)
	if err != nil {
		return nil, apperrors.ValidationFailed("version", err.Error())
	}

	slog.Info("Starting release",
		logfields.Package(desc.Name),
		slog.String("from", startVersion),
		slog.String("to", nextVersion))

	// The rollback controller exists for the whole run so the safety net
	// can reach it even when the failure path never does.
	r.rollback = rollback.NewController(r.git, r.diskVersion, r.opts.TagVersionPrefix, startVersion)
	if r.opts.Publish && r.shutdownReg != nil {
		r.shutdownReg.Register("rollback", func(context.Context) {
			if r.state.Published() || r.settled.Load() {
				return
			}
			r.rollback.Invoke()
		})
	}

	pipeline := r.buildPipeline(desc, nextVersion)
	if _, err := r.executor.Run(ctx, pipeline); err != nil {
		return nil, err
	}

	final, err := r.readDescriptor()
	if err != nil {
		return nil, apperrors.Internal("release finished but the descriptor could not be re-read", err)
	}
	return final, nil
}

// diskVersion is the fresh-from-disk version reader handed to rollback.
func (r *Releaser) diskVersion() (string, error) {
	desc, err := r.readDescriptor()
	if err != nil {
		return "", err
	}
	return desc.Version, nil
}

// TagName returns the tag the given version is expected to carry.
func (r *Releaser) TagName(version string) string {
	return fmt.Sprintf("%s%s", r.opts.TagVersionPrefix, version)
}
