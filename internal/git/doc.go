// Package git provides a client for the version-control side of a release
// run: tag queries, tag deletion, dropping the most recent commit, upstream
// detection and pushing.
//
// This package handles Git operations including:
//   - Latest semver tag resolution with a configurable version prefix
//   - Rollback primitives (delete tag, reset to the parent commit)
//   - Upstream-branch existence checks driving the tag-push stage
//   - Push with follow-tags semantics and retry for transient failures
//   - Typed errors for structured error handling
//
// All operations go through go-git against the repository at the client's
// path; nothing shells out to a git binary.
package git
