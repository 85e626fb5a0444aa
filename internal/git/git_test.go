package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type testRepo struct {
	path string
	repo *gogit.Repository
}

func initRepo(t *testing.T) *testRepo {
	t.Helper()
	path := t.TempDir()
	repo, err := gogit.PlainInit(path, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return &testRepo{path: path, repo: repo}
}

// commitFile writes content and commits it, returning the commit hash.
func (tr *testRepo) commitFile(t *testing.T, name, content, msg string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(tr.path, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	w, err := tr.repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := w.Add(name); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	hash, err := w.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

func (tr *testRepo) tag(t *testing.T, name string, hash plumbing.Hash) {
	t.Helper()
	if _, err := tr.repo.CreateTag(name, hash, nil); err != nil {
		t.Fatalf("tag %s: %v", name, err)
	}
}

func TestLatestTagOrdersBySemver(t *testing.T) {
	tr := initRepo(t)
	h1 := tr.commitFile(t, "a.txt", "1", "first")
	h2 := tr.commitFile(t, "a.txt", "2", "second")

	// creation order deliberately differs from semver order
	tr.tag(t, "v1.10.0", h1)
	tr.tag(t, "v1.2.0", h2)
	tr.tag(t, "v1.9.9", h2)
	tr.tag(t, "not-a-version", h2)

	client := NewClient(tr.path)
	latest, err := client.LatestTag("v")
	if err != nil {
		t.Fatalf("LatestTag: %v", err)
	}
	if latest != "v1.10.0" {
		t.Fatalf("expected v1.10.0, got %s", latest)
	}
}

func TestLatestTagNoTags(t *testing.T) {
	tr := initRepo(t)
	tr.commitFile(t, "a.txt", "1", "first")

	client := NewClient(tr.path)
	_, err := client.LatestTag("v")
	var noTags *NoTagsError
	if !errors.As(err, &noTags) {
		t.Fatalf("expected NoTagsError, got %v", err)
	}
}

func TestLatestTagRespectsPrefix(t *testing.T) {
	tr := initRepo(t)
	h := tr.commitFile(t, "a.txt", "1", "first")
	tr.tag(t, "release-2.0.0", h)
	tr.tag(t, "release-1.0.0", h)

	client := NewClient(tr.path)
	latest, err := client.LatestTag("release-")
	if err != nil {
		t.Fatalf("LatestTag: %v", err)
	}
	if latest != "release-2.0.0" {
		t.Fatalf("expected release-2.0.0, got %s", latest)
	}
}

func TestDeleteTag(t *testing.T) {
	tr := initRepo(t)
	h := tr.commitFile(t, "a.txt", "1", "first")
	tr.tag(t, "v1.0.0", h)

	client := NewClient(tr.path)
	if err := client.DeleteTag("v1.0.0"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if _, err := client.LatestTag("v"); err == nil {
		t.Fatal("expected no tags after deletion")
	}
}

func TestCreateTagPointsAtHead(t *testing.T) {
	tr := initRepo(t)
	tr.commitFile(t, "a.txt", "1", "first")

	client := NewClient(tr.path)
	if err := client.CreateTag("v0.1.0"); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	latest, err := client.LatestTag("v")
	if err != nil {
		t.Fatalf("LatestTag: %v", err)
	}
	if latest != "v0.1.0" {
		t.Fatalf("expected v0.1.0, got %s", latest)
	}
}

func TestRemoveLastCommit(t *testing.T) {
	tr := initRepo(t)
	first := tr.commitFile(t, "a.txt", "old", "first")
	tr.commitFile(t, "a.txt", "new", "second")

	client := NewClient(tr.path)
	if err := client.RemoveLastCommit(); err != nil {
		t.Fatalf("RemoveLastCommit: %v", err)
	}

	head, err := tr.repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Hash() != first {
		t.Fatalf("expected HEAD at first commit %s, got %s", first, head.Hash())
	}
	data, err := os.ReadFile(filepath.Join(tr.path, "a.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "old" {
		t.Fatalf("expected working tree restored to %q, got %q", "old", string(data))
	}
}

func TestRemoveLastCommitOnRootCommitFails(t *testing.T) {
	tr := initRepo(t)
	tr.commitFile(t, "a.txt", "only", "first")

	client := NewClient(tr.path)
	if err := client.RemoveLastCommit(); err == nil {
		t.Fatal("expected error resetting past the root commit")
	}
}

func TestIsClean(t *testing.T) {
	tr := initRepo(t)
	tr.commitFile(t, "a.txt", "1", "first")

	client := NewClient(tr.path)
	clean, err := client.IsClean()
	if err != nil {
		t.Fatalf("IsClean: %v", err)
	}
	if !clean {
		t.Fatal("expected clean tree after commit")
	}

	if err := os.WriteFile(filepath.Join(tr.path, "a.txt"), []byte("dirty"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	clean, err = client.IsClean()
	if err != nil {
		t.Fatalf("IsClean: %v", err)
	}
	if clean {
		t.Fatal("expected dirty tree after modification")
	}
}

func TestCurrentBranch(t *testing.T) {
	tr := initRepo(t)
	tr.commitFile(t, "a.txt", "1", "first")

	client := NewClient(tr.path)
	branch, err := client.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "master" {
		t.Fatalf("expected master, got %s", branch)
	}
}

func TestHasUpstream(t *testing.T) {
	tr := initRepo(t)
	tr.commitFile(t, "a.txt", "1", "first")

	client := NewClient(tr.path)
	has, err := client.HasUpstream("master")
	if err != nil {
		t.Fatalf("HasUpstream: %v", err)
	}
	if has {
		t.Fatal("fresh repo should have no upstream")
	}

	cfg, err := tr.repo.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Branches["master"] = &gitcfg.Branch{
		Name:   "master",
		Remote: "origin",
		Merge:  plumbing.ReferenceName("refs/heads/master"),
	}
	if err := tr.repo.SetConfig(cfg); err != nil {
		t.Fatalf("set config: %v", err)
	}

	has, err = client.HasUpstream("master")
	if err != nil {
		t.Fatalf("HasUpstream: %v", err)
	}
	if !has {
		t.Fatal("expected upstream after configuring tracking")
	}
}

func TestClassifyPushError(t *testing.T) {
	authErr := classifyPushError(errors.New("authentication required"))
	var typedAuth *AuthError
	if !errors.As(authErr, &typedAuth) {
		t.Fatalf("expected AuthError, got %T", authErr)
	}
	if !isPermanentPushError(authErr) {
		t.Fatal("auth errors are permanent")
	}

	rejected := classifyPushError(errors.New("non-fast-forward update"))
	var typedRejected *PushRejectedError
	if !errors.As(rejected, &typedRejected) {
		t.Fatalf("expected PushRejectedError, got %T", rejected)
	}

	transient := classifyPushError(errors.New("connection reset by peer"))
	if isPermanentPushError(transient) {
		t.Fatal("connection errors should be retryable")
	}
}
