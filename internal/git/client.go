package git

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/shipit/internal/config"
	"git.home.luguber.info/inful/shipit/internal/retry"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Client handles Git operations against one repository.
type Client struct {
	repoPath string
	auth     *config.AuthConfig
	policy   retry.Policy

	openOnce sync.Once
	repo     *gogit.Repository
	openErr  error
}

// NewClient creates a new Git client for the repository at repoPath.
func NewClient(repoPath string) *Client {
	return &Client{
		repoPath: repoPath,
		policy:   retry.DefaultPolicy(),
	}
}

// WithAuth configures remote authentication; nil keeps ambient credentials.
func (c *Client) WithAuth(auth *config.AuthConfig) *Client {
	c.auth = auth
	return c
}

// WithRetryPolicy overrides the push retry policy.
func (c *Client) WithRetryPolicy(p retry.Policy) *Client {
	c.policy = p
	return c
}

// Path returns the repository path the client operates on.
func (c *Client) Path() string {
	return c.repoPath
}

// open lazily opens the repository; the handle is reused across operations.
func (c *Client) open() (*gogit.Repository, error) {
	c.openOnce.Do(func() {
		c.repo, c.openErr = gogit.PlainOpen(c.repoPath)
		if c.openErr != nil {
			c.openErr = fmt.Errorf("failed to open repository at %s: %w", c.repoPath, c.openErr)
		}
	})
	return c.repo, c.openErr
}

// getAuthentication creates authentication based on config
func (c *Client) getAuthentication() (transport.AuthMethod, error) {
	auth := c.auth
	if auth == nil {
		return nil, nil
	}

	switch auth.Type {
	case "none", "":
		return nil, nil // No authentication needed for public remotes

	case "ssh":
		keyPath := auth.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}

		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
		}
		return publicKeys, nil

	case "token":
		if auth.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		return &http.BasicAuth{
			Username: "token", // GitHub/GitLab use "token" as username
			Password: auth.Token,
		}, nil

	case "basic":
		if auth.Username == "" || auth.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{
			Username: auth.Username,
			Password: auth.Password,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported authentication type: %s", auth.Type)
	}
}
