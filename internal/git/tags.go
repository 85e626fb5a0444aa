package git

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/shipit/internal/logfields"
	"git.home.luguber.info/inful/shipit/internal/semver"
)

// LatestTag returns the highest semantic-version tag carrying the given
// prefix, by semver ordering after the prefix is stripped. Tags that do not
// parse as semantic versions are ignored.
func (c *Client) LatestTag(prefix string) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}

	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	var latest string
	for {
		ref, err := iter.Next()
		if err != nil {
			break
		}
		name := ref.Name().Short()
		version := semver.StripPrefix(name, prefix)
		if !semver.Valid(version) {
			slog.Debug("Ignoring non-semver tag", logfields.Tag(name))
			continue
		}
		if latest == "" || semver.Compare(version, semver.StripPrefix(latest, prefix)) > 0 {
			latest = name
		}
	}

	if latest == "" {
		return "", &NoTagsError{Path: c.repoPath}
	}
	return latest, nil
}

// DeleteTag removes the named tag from the local repository.
func (c *Client) DeleteTag(name string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}
	if err := repo.DeleteTag(name); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", name, err)
	}
	slog.Info("Tag deleted", logfields.Tag(name))
	return nil
}

// CreateTag points a new lightweight tag at HEAD.
func (c *Client) CreateTag(name string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if _, err := repo.CreateTag(name, head.Hash(), nil); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	slog.Debug("Tag created", logfields.Tag(name))
	return nil
}
