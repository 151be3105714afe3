package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// PyprojectStatic declares a static [project] version.
const PyprojectStatic = `[build-system]
requires = ["hatchling"]
build-backend = "hatchling.build"

[project]
name = "foo"
version = "0.0.1"
description = "My package description"
readme = "README.md"
license = {file = "LICENSE"}

[project.urls]
Homepage = "https://foo.com"

# keep this comment
[tool.pytest.ini_options]
addopts = "-ra"
`

// PyprojectDynamic reads the version from foo/__init__.py via hatch.
const PyprojectDynamic = `[build-system]
requires = ["hatchling"]
build-backend = "hatchling.build"

[project]
name = "foo"
dynamic = ["version"]

[tool.hatch.version]
path = "foo/__init__.py"
`

// PyprojectBackendOnly declares a dynamic version with no readable source.
const PyprojectBackendOnly = `[build-system]
requires = ["hatchling", "hatch-vcs"]
build-backend = "hatchling.build"

[project]
name = "foo"
dynamic = ["version"]
`

// InitPy holds a __version__ declaration.
const InitPy = `"""Foo package."""
__version__ = "0.0.1"
`

// SetupPy is a legacy setuptools script with a literal version.
const SetupPy = `import setuptools

setuptools.setup(
    name="foo",
    version="0.0.1",
    packages=["foo"],
)
`

// SetupCfg is a legacy declarative setuptools config.
const SetupCfg = `[metadata]
name = foo
version = 0.0.1
description = My package

[options]
packages = find:
`

// PackageJSON is a minimal npm manifest.
const PackageJSON = `{
  "name": "foo",
  "version": "1.0.0",
  "description": "My npm package",
  "scripts": {
    "build": "echo build"
  },
  "license": "MIT"
}
`

// ChangelogMarker separates the preamble from generated entries.
const ChangelogMarker = "<!-- <START NEW CHANGELOG ENTRY> -->"

// Changelog is a changelog with a preamble, the insertion marker and one entry.
const Changelog = `# Changelog

All notable changes to this project are documented here.

<!-- <START NEW CHANGELOG ENTRY> -->

## 0.0.1

Initial release
`

// ChangelogNoMarker has entries but no insertion marker.
const ChangelogNoMarker = `# Changelog

Hand-written notes.

## 0.0.1

Initial release
`

// GitHubReleaseNotes is a GitHub-generated release body.
const GitHubReleaseNotes = `## What's Changed
* Defining contributions by @tester in https://github.com/baz/bar/pull/21
* Fix the widget by @other in https://github.com/baz/bar/pull/22

**Full Changelog**: https://github.com/baz/bar/compare/v1.0.0...v1.1.0
`

// Layout writes files into dir, creating parent directories.
func Layout(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// PyPackage returns a committed repository holding a Python package with a
// static pyproject version and a changelog.
func PyPackage(t testing.TB) *GitRepo {
	t.Helper()
	g := NewGitRepo(t)
	g.Commit("add python package", map[string]string{
		"pyproject.toml":  PyprojectStatic,
		"foo/__init__.py": InitPy,
		"CHANGELOG.md":    Changelog,
	})
	return g
}

// NPMPackage returns a committed repository holding an npm package.
func NPMPackage(t testing.TB) *GitRepo {
	t.Helper()
	g := NewGitRepo(t)
	g.Commit("add npm package", map[string]string{
		"package.json": PackageJSON,
		"CHANGELOG.md": Changelog,
		".gitignore":   "node_modules/\n",
	})
	return g
}

// PyMultiPackage returns a repository with n Python packages under
// packages/pkgN, each with its own static pyproject.
func PyMultiPackage(t testing.TB, n int) (*GitRepo, []string) {
	t.Helper()
	g := NewGitRepo(t)
	files := map[string]string{"CHANGELOG.md": Changelog}
	var dirs []string
	for i := 0; i < n; i++ {
		rel := fmt.Sprintf("packages/pkg%d", i)
		files[rel+"/pyproject.toml"] = PyprojectStatic
		dirs = append(dirs, rel)
	}
	g.Commit("add packages", files)
	return g, dirs
}

// Artifacts writes fake build outputs under dir/dist and returns their paths.
func Artifacts(t testing.TB, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, "dist", name)
		Layout(t, dir, map[string]string{"dist/" + name: "artifact " + name + "\n"})
		paths = append(paths, path)
	}
	return paths
}
