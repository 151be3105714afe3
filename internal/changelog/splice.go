package changelog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// newChangelog seeds a changelog file that does not exist yet.
const newChangelog = "# Changelog\n\n" + Marker + "\n\n"

// SpliceEntry inserts entry into existing as its topmost version block.
// Inserting a version that is already present produces a duplicate heading.
func SpliceEntry(entry, existing string) string {
	doc := ParseDocument(existing)
	doc.Insert(entry)
	return doc.String()
}

// ExtractCurrentVersion returns the version of the topmost entry, skipping
// headings that carry no version such as "Unreleased". It returns "" when no
// entry declares one.
func ExtractCurrentVersion(text string) string {
	for _, b := range ParseDocument(text).Blocks() {
		if b.Version != "" {
			return b.Version
		}
	}
	return ""
}

// CheckEntry reports a Configuration error when text has no entry for version.
func CheckEntry(text, version string) error {
	if _, ok := ParseDocument(text).Find(version); !ok {
		return relerrors.MissingChangelogEntry("changelog", version)
	}
	return nil
}

// CheckFile is CheckEntry over the file at path.
func CheckFile(path, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "reading changelog "+path)
	}
	if CheckEntry(string(data), version) != nil {
		return relerrors.MissingChangelogEntry(path, version)
	}
	return nil
}

// UpdateFile splices entry into the changelog at path, creating the file
// when it does not exist. The file is read and written whole.
func UpdateFile(path, entry string) error {
	mode := fs.FileMode(0o644)
	existing := newChangelog

	info, err := os.Stat(path)
	switch {
	case err == nil:
		data, err := os.ReadFile(path)
		if err != nil {
			return relerrors.WrapWithMessage(err, relerrors.Configuration, "reading changelog "+path)
		}
		existing = string(data)
		mode = info.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "reading changelog "+path)
	}

	if err := os.WriteFile(path, []byte(SpliceEntry(entry, existing)), mode); err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, fmt.Sprintf("writing changelog %s", path))
	}
	return nil
}

// ApplyTitlesToFile rewrites the entry for version in the changelog at path
// with the titles of a GitHub release body (see ApplyReleaseTitles).
func ApplyTitlesToFile(path, version, releaseBody string) error {
	info, err := os.Stat(path)
	if err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "reading changelog "+path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "reading changelog "+path)
	}

	doc := ParseDocument(string(data))
	block, ok := doc.Find(version)
	if !ok {
		return relerrors.MissingChangelogEntry(path, version)
	}
	doc.Replace(version, ApplyReleaseTitles(block.Text, releaseBody))

	if err := os.WriteFile(path, []byte(doc.String()), info.Mode().Perm()); err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, fmt.Sprintf("writing changelog %s", path))
	}
	return nil
}
