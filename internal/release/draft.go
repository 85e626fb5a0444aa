package release

import (
	"fmt"
	"net/url"
	"strings"
)

// IsGitHubURL reports whether repoURL points at a GitHub-hosted remote,
// which is the only platform release drafts are built for.
func IsGitHubURL(repoURL string) bool {
	if repoURL == "" {
		return false
	}
	u, err := url.Parse(repoURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com")
}

// DraftURL builds the prefilled new-release page for the given tag.
func DraftURL(repoURL, tag string) (string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL %q: %w", repoURL, err)
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), ".git")
	if u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("repository URL %q has no owner/name path", repoURL)
	}
	q := url.Values{"tag": {tag}}
	return u.String() + "/releases/new?" + q.Encode(), nil
}
