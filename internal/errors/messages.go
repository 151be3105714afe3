package errors

import "fmt"

// Common error messages for the relcut CLI.
// These templates keep release failures consistent and actionable.

// NoVersionSource creates an error when no manifest declares a version.
func NoVersionSource(dir string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("no version source found in %s", dir),
		"Add a [project] version to pyproject.toml, or a \"version\" to package.json",
		"For dynamic versions configure [tool.hatch.version] path or install hatch",
		"Or pass --dir to point at the package directory",
	)
}

// InvalidVersionSpec creates an error for a spec that is neither a keyword nor a version.
func InvalidVersionSpec(spec string, err error) *CLIError {
	e := NewVersionError(
		fmt.Sprintf("invalid version spec %q", spec),
		"Use one of: patch, minor, major, next, dev",
		"Or give an explicit version such as 1.2.0, 1.2.0a1 or 1.2.0-rc.1",
	)
	e.Err = err
	return e
}

// VersionNotGreater creates an error when a bump would not move the version forward.
func VersionNotGreater(next, current string) *CLIError {
	return NewVersionError(
		fmt.Sprintf("version %s is not greater than current version %s", next, current),
		"Pick a version that sorts after "+current,
	)
}

// TagAlreadyExists creates an error when the target release tag already exists.
func TagAlreadyExists(tag string) *CLIError {
	return NewVersionError(
		fmt.Sprintf("tag %s already exists", tag),
		"Choose a different version",
		"Or delete the stale tag with: git tag -d "+tag,
	)
}

// NoArtifacts creates an error for an empty or missing artifact directory.
func NoArtifacts(distDir string) *CLIError {
	return NewBuildError(
		fmt.Sprintf("no build artifacts found in %s", distDir),
		"Run 'relcut build' first",
		"Or check dist_dir in your relcut configuration",
	)
}

// BuildCommandFailed creates an error when a build backend command fails.
func BuildCommandFailed(command string, err error) *CLIError {
	return WrapWithMessage(err, Build,
		fmt.Sprintf("build command failed: %s", command),
		"Run the command manually to inspect its output",
		"Check that the build tool is installed and on PATH",
	)
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for syntax errors",
	)
}

// MissingChangelogEntry creates an error when the changelog has no entry for a version.
func MissingChangelogEntry(path, version string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("no changelog entry for %s in %s", version, path),
		"Generate one with: relcut changelog update "+version,
	)
}

// RepoNotDetected creates an error when the GitHub repository cannot be inferred.
func RepoNotDetected() *CLIError {
	return NewConfigError(
		"could not determine the GitHub repository",
		"Pass --repo owner/name",
		"Or set repo in .relcut.toml, or add an 'origin' remote pointing at GitHub",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("not a git repository: %s", path),
		"Initialize with: git init",
		"Or pass --dir to point at an existing repository",
	)
}
