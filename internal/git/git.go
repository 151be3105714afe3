// Package git provides the version-control collaborator for relcut: branch and
// remote detection, tag lookup along a ref's history, and release commits. It
// uses the go-git library for every operation so no git binary is required.
package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/version"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// DefaultAuthor signs release commits when neither the caller nor the git
// configuration supplies an identity.
var DefaultAuthor = Author{Name: "relcut", Email: "relcut@users.noreply.github.com"}

// Author identifies the author of a commit.
type Author struct {
	Name  string
	Email string
}

// Repository is an opened git repository.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, walking up the directory tree to
// find the repository root. An empty path means the current working directory.
func Open(path string) (*Repository, error) {
	repo, err := openRepo(path)
	if err != nil {
		if stderrors.Is(err, git.ErrRepositoryNotExists) {
			return nil, relerrors.GitNotRepository(path)
		}
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	return &Repository{repo: repo, root: wt.Filesystem.Root()}, nil
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	logDebug("[git] repository opened successfully")
	return repo, nil
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// CurrentBranch returns the name of the current branch.
// Returns empty string if in detached HEAD state.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}

	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}

	branch := head.Name().Short()
	logDebug("[git] CurrentBranch: %s", branch)
	return branch, nil
}

// RemoteSlug returns the "owner/name" slug of a GitHub remote.
func (r *Repository) RemoteSlug(remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return "", fmt.Errorf("reading remote %s: %w", remote, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remote)
	}

	slug, ok := parseSlug(urls[0])
	if !ok {
		return "", fmt.Errorf("remote %s (%s) is not a GitHub URL", remote, urls[0])
	}
	logDebug("[git] RemoteSlug: %s -> %s", remote, slug)
	return slug, nil
}

// gitHubHosts are the remote hosts a slug may be derived from.
var gitHubHosts = map[string]bool{"github.com": true, "www.github.com": true, "ssh.github.com": true}

// parseSlug extracts owner/name from SCP-style, ssh:// and https:// GitHub
// URLs. Remotes on any other host are rejected.
func parseSlug(url string) (string, bool) {
	var host, path string
	switch {
	case strings.HasPrefix(url, "git@"):
		before, after, found := strings.Cut(url, ":")
		if !found {
			return "", false
		}
		host, path = strings.TrimPrefix(before, "git@"), after
	case isSSHURL(url), strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		_, rest, _ := strings.Cut(url, "://")
		before, after, found := strings.Cut(rest, "/")
		if !found {
			return "", false
		}
		host, path = before, after
	default:
		return "", false
	}

	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	if !gitHubHosts[strings.ToLower(host)] {
		return "", false
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

// Tags returns every tag name in the repository, sorted.
func (r *Repository) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// TagExists reports whether a tag with the given name exists.
func (r *Repository) TagExists(name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), false)
	if err == nil {
		return true, nil
	}
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("checking tag %s: %w", name, err)
}

// ResolveRef resolves a branch, tag, remote ref or hash to a commit hash.
// An empty ref means HEAD. Short forms such as "heads/main" and
// "origin/main" are accepted.
func (r *Repository) ResolveRef(ref string) (string, error) {
	h, err := r.resolve(ref)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

func (r *Repository) resolve(ref string) (plumbing.Hash, error) {
	if ref == "" {
		ref = "HEAD"
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %s: %w", ref, err)
	}
	return *h, nil
}

// tagsByCommit maps commit hashes to the tags pointing at them, peeling
// annotated tags.
func (r *Repository) tagsByCommit() (map[plumbing.Hash][]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	out := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, err := r.repo.TagObject(hash); err == nil {
			c, err := tag.Commit()
			if err != nil {
				logDebug("[git] skipping tag %s: %v", ref.Name().Short(), err)
				return nil
			}
			hash = c.Hash
		}
		out[hash] = append(out[hash], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return out, nil
}

// LatestTag returns the most recent tag reachable from ref, or "" when the
// history carries none. With stableOnly, tags that do not parse as a version
// or that name a pre-release are skipped.
func (r *Repository) LatestTag(ref string, stableOnly bool) (string, error) {
	start, err := r.resolve(ref)
	if err != nil {
		return "", err
	}
	byCommit, err := r.tagsByCommit()
	if err != nil {
		return "", err
	}
	if len(byCommit) == 0 {
		return "", nil
	}

	iter, err := r.repo.Log(&git.LogOptions{From: start, Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("walking history of %s: %w", ref, err)
	}
	defer iter.Close()

	var found string
	err = iter.ForEach(func(c *object.Commit) error {
		if best := pickTag(byCommit[c.Hash], stableOnly); best != "" {
			found = best
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking history of %s: %w", ref, err)
	}

	logDebug("[git] LatestTag(%s, stable=%v): %q", ref, stableOnly, found)
	return found, nil
}

// pickTag chooses among tags on one commit, preferring the highest version.
func pickTag(tags []string, stableOnly bool) string {
	var best string
	var bestVer version.Version
	haveVer := false

	for _, t := range tags {
		v, err := version.Parse(t)
		if err != nil {
			if stableOnly {
				continue
			}
			if !haveVer && t > best {
				best = t
			}
			continue
		}
		if stableOnly && v.IsPrerelease() {
			continue
		}
		if !haveVer || version.GreaterThan(v, bestVer) {
			best, bestVer, haveVer = t, v, true
		}
	}
	return best
}

// RootCommit returns the hash of the first commit in ref's history.
func (r *Repository) RootCommit(ref string) (string, error) {
	start, err := r.resolve(ref)
	if err != nil {
		return "", err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: start})
	if err != nil {
		return "", fmt.Errorf("walking history of %s: %w", ref, err)
	}
	defer iter.Close()

	var root string
	err = iter.ForEach(func(c *object.Commit) error {
		if c.NumParents() == 0 {
			root = c.Hash.String()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking history of %s: %w", ref, err)
	}
	if root == "" {
		return "", fmt.Errorf("no root commit found for %s", ref)
	}
	return root, nil
}

// Commit stages tracked modifications plus the given paths and records a
// single commit. Paths may be absolute or relative to the repository root.
// A zero author falls back to the git configuration, then DefaultAuthor.
func (r *Repository) Commit(message string, paths []string, author Author) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		rel, err := r.relPath(p)
		if err != nil {
			return "", err
		}
		if _, err := wt.Add(rel); err != nil {
			return "", fmt.Errorf("staging %s: %w", rel, err)
		}
	}

	opts := &git.CommitOptions{All: true}
	if author.Name != "" {
		opts.Author = signature(author)
	}

	hash, err := wt.Commit(message, opts)
	if stderrors.Is(err, git.ErrMissingAuthor) {
		logDebug("[git] no configured identity, committing as %s", DefaultAuthor.Name)
		opts.Author = signature(DefaultAuthor)
		hash, err = wt.Commit(message, opts)
	}
	if err != nil {
		return "", fmt.Errorf("creating commit: %w", err)
	}

	logDebug("[git] Commit: %s", hash)
	return hash.String(), nil
}

func signature(a Author) *object.Signature {
	return &object.Signature{Name: a.Name, Email: a.Email, When: time.Now()}
}

func (r *Repository) relPath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p), nil
	}
	rel, err := filepath.Rel(r.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the repository %s", p, r.root)
	}
	return filepath.ToSlash(rel), nil
}

// DefaultFetchTimeout bounds FetchTags when the caller's context has no deadline.
const DefaultFetchTimeout = 60 * time.Second

// FetchTags fetches every tag from remote so tag lookups see the published
// history. A token, when set, authenticates HTTPS remotes.
// Timeouts and an already up-to-date remote are not errors.
func (r *Repository) FetchTags(ctx context.Context, remote, token string) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultFetchTimeout)
		defer cancel()
	}
	if remote == "" {
		remote = "origin"
	}

	rem, err := r.repo.Remote(remote)
	if err != nil {
		return fmt.Errorf("reading remote %s: %w", remote, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return nil
	}
	url := urls[0]

	if isSSHURL(url) && !isSSHAgentAvailable() {
		logDebug("[git] skipping fetch from remote '%s': SSH URL without SSH agent available", remote)
		return nil
	}

	logDebug("[git] fetching tags from remote '%s' (%s)", remote, url)
	err = r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		Auth:       getAuthForURL(url, token),
		RefSpecs:   []config.RefSpec{"+refs/tags/*:refs/tags/*"},
		Tags:       git.AllTags,
	})

	if ctx.Err() != nil {
		logDebug("[git] fetch from remote '%s' timed out or cancelled", remote)
		return nil
	}
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return relerrors.NewNetworkError(err, fmt.Sprintf("fetching tags from %s", remote))
	}
	return nil
}

// getAuthForURL returns the appropriate authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use the token or environment credentials.
func getAuthForURL(url, token string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}

	if token != "" {
		return &http.BasicAuth{Username: "x-access-token", Password: token}
	}

	username := os.Getenv("GIT_USERNAME")
	password := os.Getenv("GIT_PASSWORD")
	if username != "" {
		return &http.BasicAuth{Username: username, Password: password}
	}
	return nil
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
func isSSHAgentAvailable() bool {
	return strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK")) != ""
}
