// Package config resolves the immutable Options for one release run from
// the optional .shipit.yaml file, the environment and CLI flags. Options are
// resolved once at startup and read-only afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "git.home.luguber.info/inful/shipit/internal/errors"
)

// DefaultConfigFile is looked up in the project directory when no explicit
// path is given.
const DefaultConfigFile = ".shipit.yaml"

// Options is the resolved, immutable run configuration.
type Options struct {
	// Cleanup includes the dependency-reinstall stage.
	Cleanup bool
	// Tests includes the test stage.
	Tests bool
	// Publish includes the publish-related stages and gates rollback and
	// the exit safety net.
	Publish bool
	// Yolo forces Cleanup and Tests off regardless of their own settings.
	Yolo bool
	// Yarn selects package-manager-specific stage variants. nil omits both
	// variants entirely.
	Yarn *bool
	// RepoURL is the remote URL used to detect release-draft support.
	RepoURL string
	// ReleaseDraft gates the release-draft stage.
	ReleaseDraft bool
	// TwoFactorExists suppresses the two-factor-auth-enable stage when
	// registry access is already configured.
	TwoFactorExists bool
	// TagVersionPrefix is stripped from tag names to recover the semantic
	// version they encode.
	TagVersionPrefix string
	// Auth configures credentials for pushing to the remote. Nil means the
	// ambient credential helpers (ssh-agent, credential store) are used.
	Auth *AuthConfig
}

// AuthConfig represents authentication configuration for the git remote.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// fileOptions mirrors Options with pointer fields so an absent key can be
// told apart from an explicit false.
type fileOptions struct {
	Cleanup          *bool       `yaml:"cleanup,omitempty"`
	Tests            *bool       `yaml:"tests,omitempty"`
	Publish          *bool       `yaml:"publish,omitempty"`
	Yolo             *bool       `yaml:"yolo,omitempty"`
	Yarn             *bool       `yaml:"yarn,omitempty"`
	RepoURL          *string     `yaml:"repo_url,omitempty"`
	ReleaseDraft     *bool       `yaml:"release_draft,omitempty"`
	TwoFactorExists  *bool       `yaml:"exists,omitempty"`
	TagVersionPrefix *string     `yaml:"tag_version_prefix,omitempty"`
	Auth             *AuthConfig `yaml:"auth,omitempty"`
}

// Defaults returns the options used when nothing is configured.
func Defaults() Options {
	return Options{
		Cleanup:          true,
		Tests:            true,
		Publish:          true,
		ReleaseDraft:     true,
		TagVersionPrefix: "v",
	}
}

// Load resolves the options for the project at dir. configPath names an
// explicit configuration file (absolute, or relative to dir) that must
// exist; when empty, DefaultConfigFile in dir is used and its absence leaves
// the defaults standing. The process working directory plays no part, so a
// stray file there can never configure a release of a different project.
func Load(dir, configPath string) (Options, error) {
	// Load the project's .env file if it exists; absence is fine.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	opts := Defaults()

	path := configPath
	if path == "" {
		path = DefaultConfigFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if configPath != "" {
				return Options{}, apperrors.ConfigNotFound(path)
			}
			return opts, nil
		}
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var file fileOptions
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return Options{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	file.applyTo(&opts)
	return opts, nil
}

// applyTo overlays the file values onto opts, leaving absent keys alone.
func (f *fileOptions) applyTo(opts *Options) {
	if f.Cleanup != nil {
		opts.Cleanup = *f.Cleanup
	}
	if f.Tests != nil {
		opts.Tests = *f.Tests
	}
	if f.Publish != nil {
		opts.Publish = *f.Publish
	}
	if f.Yolo != nil {
		opts.Yolo = *f.Yolo
	}
	if f.Yarn != nil {
		opts.Yarn = f.Yarn
	}
	if f.RepoURL != nil {
		opts.RepoURL = *f.RepoURL
	}
	if f.ReleaseDraft != nil {
		opts.ReleaseDraft = *f.ReleaseDraft
	}
	if f.TwoFactorExists != nil {
		opts.TwoFactorExists = *f.TwoFactorExists
	}
	if f.TagVersionPrefix != nil {
		opts.TagVersionPrefix = *f.TagVersionPrefix
	}
	if f.Auth != nil {
		opts.Auth = f.Auth
	}
}

// Normalize applies cross-field rules after flags have been merged in.
// Yolo mode turns the slow-but-safe stages off.
func Normalize(opts Options) Options {
	if opts.Yolo {
		opts.Cleanup = false
		opts.Tests = false
	}
	return opts
}
