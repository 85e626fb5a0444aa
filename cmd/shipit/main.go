package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/shipit/internal/config"
	apperrors "git.home.luguber.info/inful/shipit/internal/errors"
	gitclient "git.home.luguber.info/inful/shipit/internal/git"
	"git.home.luguber.info/inful/shipit/internal/logfields"
	"git.home.luguber.info/inful/shipit/internal/npm"
	"git.home.luguber.info/inful/shipit/internal/release"
	"git.home.luguber.info/inful/shipit/internal/shell"
	"git.home.luguber.info/inful/shipit/internal/shutdown"
	"git.home.luguber.info/inful/shipit/internal/version"
)

var CLI struct {
	Version kong.VersionFlag `help:"Print the shipit version and exit."`

	Release struct {
		VersionInput string `arg:"" name:"version" help:"Bump keyword (patch, minor, major, prepatch, preminor, premajor, prerelease) or an explicit semantic version greater than the current one."`

		Dir     string `short:"d" help:"Project directory" default:"."`
		Config  string `short:"c" help:"Configuration file path (default .shipit.yaml in the project directory)"`
		Verbose bool   `short:"v" help:"Enable verbose logging"`

		Cleanup      *bool  `negatable:"" help:"Reinstall dependencies from scratch before releasing"`
		Tests        *bool  `negatable:"" help:"Run the project test suite before bumping"`
		Publish      *bool  `negatable:"" help:"Publish the package to the registry"`
		ReleaseDraft *bool  `negatable:"" help:"Open a prefilled release draft for GitHub-hosted projects"`
		Yolo         bool   `help:"Skip cleanup and tests"`
		Yarn         *bool  `negatable:"" help:"Use yarn instead of npm for package manager stages"`
		TagPrefix    string `help:"Override the version tag prefix"`
		RepoURL      string `help:"Override the repository URL used for the release draft"`
	} `cmd:"" default:"withargs" help:"Run the release pipeline for the package in the current directory"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("shipit"),
		kong.Description("A better npm publish: bump, tag, publish and draft a release in one guarded run."),
		kong.Vars{"version": fmt.Sprintf("shipit %s (%s, built %s)", version.Version, version.GitCommit, version.BuildTime)},
	)

	logLevel := slog.LevelInfo
	if CLI.Release.Verbose {
		logLevel = slog.LevelDebug
	}
	runID := uuid.New().String()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})).With(logfields.RunID(runID))
	slog.SetDefault(logger)

	adapter := apperrors.NewCLIErrorAdapter(CLI.Release.Verbose, logger)
	adapter.HandleError(run(context.Background()))
}

func run(ctx context.Context) error {
	dir, err := filepath.Abs(CLI.Release.Dir)
	if err != nil {
		return apperrors.ValidationFailed("dir", err.Error())
	}

	opts, err := config.Load(dir, CLI.Release.Config)
	if err != nil {
		return err
	}
	applyFlags(&opts)
	opts = config.Normalize(opts)

	runner := &shell.Runner{Dir: dir}
	pm := npm.New(runner, opts.Yarn != nil && *opts.Yarn)
	if opts.Yarn == nil {
		slog.Debug("No package manager selected, cleanup and install stages are omitted")
	} else {
		slog.Debug("Package manager selected", "yarn", pm.IsYarn())
	}
	git := gitclient.NewClient(dir).WithAuth(opts.Auth)

	readDescriptor := func() (*npm.PackageDescriptor, error) {
		return npm.ReadDescriptor(dir)
	}
	cleaner := func() error {
		return os.RemoveAll(filepath.Join(dir, "node_modules"))
	}

	reg := shutdown.NewRegistry()
	stop := reg.Listen()
	defer stop()

	releaser := release.NewReleaser(opts, git, pm, readDescriptor, cleaner, reg, nil)
	desc, runErr := releaser.Run(ctx, CLI.Release.VersionInput)

	// Normal exit waits out any rollback a signal may have started.
	reg.RunHooks(ctx)

	if runErr != nil {
		return runErr
	}

	slog.Info("Release complete",
		logfields.Package(desc.Name),
		logfields.Version(desc.Version),
		logfields.Tag(releaser.TagName(desc.Version)))
	fmt.Printf("\n %s %s published 🎉\n", desc.Name, desc.Version)
	return nil
}

// applyFlags overlays explicitly-set command line flags on the loaded
// configuration. Unset pointers leave the file or default value in place.
func applyFlags(opts *config.Options) {
	if CLI.Release.Cleanup != nil {
		opts.Cleanup = *CLI.Release.Cleanup
	}
	if CLI.Release.Tests != nil {
		opts.Tests = *CLI.Release.Tests
	}
	if CLI.Release.Publish != nil {
		opts.Publish = *CLI.Release.Publish
	}
	if CLI.Release.ReleaseDraft != nil {
		opts.ReleaseDraft = *CLI.Release.ReleaseDraft
	}
	if CLI.Release.Yolo {
		opts.Yolo = true
	}
	if CLI.Release.Yarn != nil {
		opts.Yarn = CLI.Release.Yarn
	}
	if CLI.Release.TagPrefix != "" {
		opts.TagVersionPrefix = CLI.Release.TagPrefix
	}
	if CLI.Release.RepoURL != "" {
		opts.RepoURL = CLI.Release.RepoURL
	}
}
