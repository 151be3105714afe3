// Package release records built artifacts in a single "Publish" commit whose
// message lists the SHA-256 digest of every file in the dist directory.
package release

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ariel-frischer/relcut/internal/build"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/git"
)

// DefaultMessage is the commit subject template; {version} is substituted.
const DefaultMessage = "Publish {version}"

// Options tunes CreateReleaseCommit.
type Options struct {
	// DistDir holds the artifacts, absolute or relative to the repository
	// root. Defaults to "dist".
	DistDir string
	// Message is the subject template. Defaults to DefaultMessage.
	Message string
	Author  git.Author
}

// Commit is a recorded release commit.
type Commit struct {
	hash    string
	message string
	hashes  map[string]string
}

// Hash is the commit id.
func (c *Commit) Hash() string { return c.hash }

// Message is the full commit message.
func (c *Commit) Message() string { return c.message }

// Hashes maps slash-separated artifact paths, relative to the repository
// root, to their hex SHA-256 digests. The map is a copy.
func (c *Commit) Hashes() map[string]string { return maps.Clone(c.hashes) }

// CreateReleaseCommit hashes every artifact under the dist directory, then
// commits the artifacts together with any tracked edits (such as a version
// bump) in one commit.
func CreateReleaseCommit(repo *git.Repository, version string, opts Options) (*Commit, error) {
	distDir := opts.DistDir
	if distDir == "" {
		distDir = "dist"
	}
	if !filepath.IsAbs(distDir) {
		distDir = filepath.Join(repo.Root(), distDir)
	}

	files, err := build.ListArtifacts(distDir)
	if err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(repo.Root(), f)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, relerrors.NewBuildError(
				fmt.Sprintf("artifact %s is outside the repository %s", f, repo.Root()),
				"Set dist_dir to a directory inside the repository",
			)
		}
		sum, err := ComputeSHA256(f)
		if err != nil {
			return nil, relerrors.WrapWithMessage(err, relerrors.Build, "hashing "+f)
		}
		hashes[filepath.ToSlash(rel)] = sum
	}

	message := formatMessage(opts.Message, version, hashes)
	hash, err := repo.Commit(message, files, opts.Author)
	if err != nil {
		return nil, relerrors.WrapWithMessage(err, relerrors.Build, "creating release commit",
			"Check that the repository is not mid-merge or rebase")
	}
	return &Commit{hash: hash, message: message, hashes: hashes}, nil
}

// formatMessage builds "<subject>\n\nSHA256 hashes:\n\n<name>: <sum>\n\n..."
// with one paragraph per artifact, sorted by path.
func formatMessage(tmpl, version string, hashes map[string]string) string {
	if tmpl == "" {
		tmpl = DefaultMessage
	}
	paths := make([]string, 0, len(hashes))
	for p := range hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	parts := []string{strings.ReplaceAll(tmpl, "{version}", version), "SHA256 hashes:"}
	for _, p := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", filepath.Base(filepath.FromSlash(p)), hashes[p]))
	}
	return strings.Join(parts, "\n\n")
}

// ComputeSHA256 returns the lowercase hex SHA-256 digest of the file at path.
func ComputeSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
