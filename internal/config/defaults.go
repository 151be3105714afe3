package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# relcut configuration
# Project settings may also live in .relcut.toml, [tool.relcut] in pyproject.toml,
# or the "relcut" key of package.json. RELCUT_<KEY> environment variables win over all files.

# Repository settings
branch: ""                            # Base branch for changelog queries (empty = current branch)
repo: ""                              # GitHub owner/name (empty = derived from the remote)
remote: origin                        # Remote used for repo discovery and tag fetches

# Release settings
changelog_path: CHANGELOG.md          # Changelog updated by 'relcut changelog update'
dist_dir: dist                        # Build output hashed into the release commit
release_message: "Publish {version}"  # Release commit subject; must contain {version}
packages: []                          # Sub-package directories bumped by 'bump-version --all'

# Changelog generation
since_last_stable: false              # Start at the last stable tag instead of the latest tag
resolve_backports: false              # Credit "Backport PR #N" entries to the original PR

# Credentials (prefer GITHUB_ACCESS_TOKEN / NPM_TOKEN in the environment)
github_token: ""
npm_registry: https://registry.npmjs.org/
npm_token: ""

# Shell commands run around each step
hooks: {}
#  before-bump-version: []
#  after-bump-version: []
#  before-build: []
#  after-build: []
#  before-release-commit: []
#  after-release-commit: []
`
}

// GetDefaults returns the default configuration values.
// Hooks have no default; release_message must keep its {version} placeholder.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"branch":            "",
		"repo":              "",
		"remote":            "origin",
		"changelog_path":    "CHANGELOG.md",
		"dist_dir":          "dist",
		"release_message":   "Publish {version}",
		"packages":          []string{},
		"since_last_stable": false,
		"resolve_backports": false,
		"github_token":      "",
		"npm_registry":      "https://registry.npmjs.org/",
		"npm_token":         "",
	}
}
