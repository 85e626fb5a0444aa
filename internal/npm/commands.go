package npm

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "git.home.luguber.info/inful/shipit/internal/errors"
	"git.home.luguber.info/inful/shipit/internal/logfields"
	"git.home.luguber.info/inful/shipit/internal/shell"
)

// Known failure markers in package-manager stderr. Matching is done against
// the captured stderr of the terminal result, never against streamed lines.
const (
	npmOutdatedLockfileMarker  = "npm ERR! cipm can only install packages when your package.json and package-lock.json"
	yarnOutdatedLockfileMarker = "error Your lockfile needs to be updated"
	yarnNoTestScriptMarker     = `Command "test" not found`
)

// LineFunc receives streamed output lines for progress reporting.
type LineFunc func(line string)

// PackageManager runs npm or yarn against one project directory.
type PackageManager struct {
	runner *shell.Runner
	yarn   bool
}

// New creates a PackageManager. yarn selects the yarn command variants.
func New(runner *shell.Runner, yarn bool) *PackageManager {
	return &PackageManager{runner: runner, yarn: yarn}
}

// IsYarn reports which package manager variant is active.
func (m *PackageManager) IsYarn() bool {
	return m.yarn
}

// run spawns the command, forwards its lines and blocks for the result.
func (m *PackageManager) run(ctx context.Context, onLine LineFunc, name string, args ...string) shell.Result {
	slog.Debug("Running package manager command", logfields.Command(name+" "+strings.Join(args, " ")))
	ex := m.runner.Run(ctx, name, args...)
	for line := range ex.Lines {
		if onLine != nil {
			onLine(line)
		}
	}
	return ex.Wait()
}

// stderrOf extracts captured stderr from a failed result, if any.
func stderrOf(err error) string {
	var exitErr *shell.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stderr
	}
	return ""
}

// CleanInstall reinstalls dependencies from the lockfile. An outdated
// lockfile is remapped to a fixed, human-readable error instead of the raw
// package-manager output.
func (m *PackageManager) CleanInstall(ctx context.Context, onLine LineFunc) error {
	var res shell.Result
	if m.yarn {
		res = m.run(ctx, onLine, "yarn", "install", "--frozen-lockfile", "--production=false")
	} else {
		res = m.run(ctx, onLine, "npm", "ci")
	}
	if res.Err == nil {
		return nil
	}
	stderr := stderrOf(res.Err)
	if strings.HasPrefix(stderr, npmOutdatedLockfileMarker) || strings.HasPrefix(stderr, yarnOutdatedLockfileMarker) {
		return apperrors.OutdatedLockfile()
	}
	return apperrors.InstallFailed(res.Err)
}

// RunTests runs the project's test script. A yarn project without a test
// script is a success, not a failure.
func (m *PackageManager) RunTests(ctx context.Context, onLine LineFunc) error {
	var res shell.Result
	if m.yarn {
		res = m.run(ctx, onLine, "yarn", "test")
	} else {
		res = m.run(ctx, onLine, "npm", "test")
	}
	if res.Err == nil {
		return nil
	}
	if m.yarn && strings.Contains(stderrOf(res.Err), yarnNoTestScriptMarker) {
		slog.Info("No test script found, skipping tests")
		return nil
	}
	return apperrors.TestsFailed(res.Err)
}

// Bump sets the new version in the descriptor and creates the bump commit
// and tag. The package manager owns both side effects.
func (m *PackageManager) Bump(ctx context.Context, version string, onLine LineFunc) error {
	var res shell.Result
	if m.yarn {
		res = m.run(ctx, onLine, "yarn", "version", "--new-version", version)
	} else {
		res = m.run(ctx, onLine, "npm", "version", version)
	}
	if res.Err != nil {
		return apperrors.BumpFailed(res.Err)
	}
	return nil
}

// Publish publishes the package to the registry, passing the one-time
// password through when the registry demands one.
func (m *PackageManager) Publish(ctx context.Context, otp string, onLine LineFunc) error {
	args := []string{"publish"}
	if otp != "" {
		args = append(args, "--otp", otp)
	}
	var res shell.Result
	if m.yarn {
		res = m.run(ctx, onLine, "yarn", args...)
	} else {
		res = m.run(ctx, onLine, "npm", args...)
	}
	return res.Err
}

// RequireTwoFactor enforces two-factor authentication for publishes of the
// named package. Registry-side; both package managers go through npm here.
func (m *PackageManager) RequireTwoFactor(ctx context.Context, pkg string, onLine LineFunc) error {
	res := m.run(ctx, onLine, "npm", "access", "2fa-required", pkg)
	if res.Err != nil {
		return apperrors.TwoFactorFailed(res.Err)
	}
	return nil
}
