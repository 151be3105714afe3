// Package testutil provides fixtures and fakes shared by relcut tests: go-git
// repositories in temp dirs, Python and npm package layouts, and a recording
// command runner.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestAuthor signs every fixture commit.
var TestAuthor = object.Signature{Name: "Test User", Email: "test@example.com"}

// GitRepo is a throwaway repository rooted in a test temp dir.
// Commits get strictly increasing timestamps so history order is deterministic.
type GitRepo struct {
	t     testing.TB
	Dir   string
	Repo  *git.Repository
	clock time.Time
}

// NewGitRepo initializes a repository on branch "main" with one commit
// containing a README.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	return NewGitRepoAt(t, t.TempDir())
}

// NewGitRepoAt is like NewGitRepo but initializes the repository in dir.
func NewGitRepoAt(t testing.TB, dir string) *GitRepo {
	t.Helper()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("read repo config: %v", err)
	}
	cfg.User.Name = TestAuthor.Name
	cfg.User.Email = TestAuthor.Email
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("write repo config: %v", err)
	}

	g := &GitRepo{
		t:     t,
		Dir:   dir,
		Repo:  repo,
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	g.Commit("initial commit", map[string]string{"README.md": "# test\n"})
	return g
}

// Path joins rel onto the repository root.
func (g *GitRepo) Path(rel string) string {
	return filepath.Join(g.Dir, filepath.FromSlash(rel))
}

// WriteFile writes content to rel, creating parent directories.
func (g *GitRepo) WriteFile(rel, content string) string {
	g.t.Helper()
	path := g.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		g.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		g.t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// ReadFile returns the content of rel.
func (g *GitRepo) ReadFile(rel string) string {
	g.t.Helper()
	data, err := os.ReadFile(g.Path(rel))
	if err != nil {
		g.t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// Commit writes files, stages everything in the worktree and commits.
// It returns the new commit hash.
func (g *GitRepo) Commit(message string, files map[string]string) string {
	g.t.Helper()
	for rel, content := range files {
		g.WriteFile(rel, content)
	}

	wt, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("worktree: %v", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		g.t.Fatalf("stage: %v", err)
	}

	g.clock = g.clock.Add(time.Minute)
	sig := TestAuthor
	sig.When = g.clock
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &sig, AllowEmptyCommits: true})
	if err != nil {
		g.t.Fatalf("commit %q: %v", message, err)
	}
	return hash.String()
}

// Head returns the commit HEAD points at.
func (g *GitRepo) Head() *object.Commit {
	g.t.Helper()
	ref, err := g.Repo.Head()
	if err != nil {
		g.t.Fatalf("head: %v", err)
	}
	c, err := g.Repo.CommitObject(ref.Hash())
	if err != nil {
		g.t.Fatalf("head commit: %v", err)
	}
	return c
}

// Tag creates a lightweight tag at HEAD.
func (g *GitRepo) Tag(name string) {
	g.t.Helper()
	g.TagAt(name, g.Head().Hash.String())
}

// TagAt creates a lightweight tag at the given commit.
func (g *GitRepo) TagAt(name, hash string) {
	g.t.Helper()
	if _, err := g.Repo.CreateTag(name, plumbing.NewHash(hash), nil); err != nil {
		g.t.Fatalf("tag %s: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag at HEAD.
func (g *GitRepo) AnnotatedTag(name, message string) {
	g.t.Helper()
	g.clock = g.clock.Add(time.Second)
	sig := TestAuthor
	sig.When = g.clock
	_, err := g.Repo.CreateTag(name, g.Head().Hash, &git.CreateTagOptions{Tagger: &sig, Message: message})
	if err != nil {
		g.t.Fatalf("annotated tag %s: %v", name, err)
	}
}

// Branch creates a branch at HEAD without checking it out.
func (g *GitRepo) Branch(name string) {
	g.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), g.Head().Hash)
	if err := g.Repo.Storer.SetReference(ref); err != nil {
		g.t.Fatalf("branch %s: %v", name, err)
	}
}

// Checkout switches the worktree to an existing branch.
func (g *GitRepo) Checkout(name string) {
	g.t.Helper()
	wt, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("worktree: %v", err)
	}
	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Keep: true})
	if err != nil {
		g.t.Fatalf("checkout %s: %v", name, err)
	}
}

// AddRemote registers a remote with a single URL.
func (g *GitRepo) AddRemote(name, url string) {
	g.t.Helper()
	if _, err := g.Repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		g.t.Fatalf("remote %s: %v", name, err)
	}
}

// IsClean reports whether the worktree has no staged or unstaged changes.
func (g *GitRepo) IsClean() bool {
	g.t.Helper()
	wt, err := g.Repo.Worktree()
	if err != nil {
		g.t.Fatalf("worktree: %v", err)
	}
	st, err := wt.Status()
	if err != nil {
		g.t.Fatalf("status: %v", err)
	}
	return st.IsClean()
}

// HeadFiles lists the paths tracked in the HEAD commit.
func (g *GitRepo) HeadFiles() []string {
	g.t.Helper()
	tree, err := g.Head().Tree()
	if err != nil {
		g.t.Fatalf("head tree: %v", err)
	}
	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})
	if err != nil {
		g.t.Fatalf("list files: %v", err)
	}
	return files
}
