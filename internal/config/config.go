// Package config provides hierarchical configuration management for relcut using koanf.
// Configuration is loaded with priority: environment variables > project config
// (.relcut.toml, [tool.relcut] in pyproject.toml, or the "relcut" key of package.json)
// > user config (~/.config/relcut/config.yml) > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigSource tracks where the project layer came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceRelcutTOML  ConfigSource = ".relcut.toml"
	SourcePyproject   ConfigSource = "pyproject.toml"
	SourcePackageJSON ConfigSource = "package.json"
)

// Configuration represents the relcut release configuration
type Configuration struct {
	// Branch is the base branch pull requests are merged into. Empty means
	// the current branch.
	Branch string `koanf:"branch"`
	// Repo is the GitHub "owner/name". Empty means derived from Remote.
	Repo   string `koanf:"repo" validate:"omitempty,repo"`
	Remote string `koanf:"remote" validate:"required"`

	ChangelogPath  string `koanf:"changelog_path" validate:"required"`
	DistDir        string `koanf:"dist_dir" validate:"required"`
	ReleaseMessage string `koanf:"release_message" validate:"required"`

	// Packages are sub-package directories bumped together by --all.
	Packages []string `koanf:"packages" validate:"dive,required"`

	SinceLastStable  bool `koanf:"since_last_stable"`
	ResolveBackports bool `koanf:"resolve_backports"`

	// GitHubToken authenticates the GitHub API. Also read from GITHUB_ACCESS_TOKEN.
	GitHubToken string `koanf:"github_token"`
	NPMRegistry string `koanf:"npm_registry" validate:"omitempty,url"`
	NPMToken    string `koanf:"npm_token"`

	// Hooks maps a hook name to shell commands run in the project directory.
	Hooks map[string][]string `koanf:"hooks"`

	// Source names the file the project layer was read from.
	Source ConfigSource `koanf:"-"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectDir is searched for project config files. Required.
	ProjectDir string
	// UserConfigPath overrides the user config path (default: UserConfigPath()).
	UserConfigPath string
	// ProjectConfigPath, when set, is loaded instead of searching ProjectDir.
	// The parser is chosen by extension.
	ProjectConfigPath string
	// WarningWriter receives notices about ignored config files (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses notices
	SkipWarnings bool
}

// Load loads configuration for the project in dir.
func Load(dir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: dir})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k)

	if err := loadUserConfig(k, opts.UserConfigPath); err != nil {
		return nil, err
	}

	source, err := loadProjectConfig(k, opts, warningWriter)
	if err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	cfg, err := finalizeConfig(k)
	if err != nil {
		return nil, err
	}
	cfg.Source = source
	return cfg, nil
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config when present.
func loadUserConfig(k *koanf.Koanf, path string) error {
	if path == "" {
		path, _ = UserConfigPath()
	}
	if !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "user"); err != nil {
		return fmt.Errorf("loading user YAML config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the first project config found, in order:
// .relcut.toml, [tool.relcut] of pyproject.toml, "relcut" of package.json.
// Lower-priority files that also carry relcut settings are reported and ignored.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions, warningWriter io.Writer) (ConfigSource, error) {
	if opts.ProjectConfigPath != "" {
		return loadExplicitProjectConfig(k, opts.ProjectConfigPath)
	}

	candidates := []struct {
		source ConfigSource
		parser koanf.Parser
		cut    string
	}{
		{SourceRelcutTOML, toml.Parser(), ""},
		{SourcePyproject, toml.Parser(), "tool.relcut"},
		{SourcePackageJSON, json.Parser(), "relcut"},
	}

	var chosen ConfigSource = SourceDefault
	for _, c := range candidates {
		path := filepath.Join(opts.ProjectDir, string(c.source))
		if !fileExists(path) {
			continue
		}
		sub := koanf.New(".")
		if err := sub.Load(file.Provider(path), c.parser); err != nil {
			return "", &ValidationError{FilePath: path, Message: cleanParseError(err)}
		}
		if c.cut != "" {
			if !sub.Exists(c.cut) {
				continue
			}
			sub = sub.Cut(c.cut)
		}
		if chosen != SourceDefault {
			if !opts.SkipWarnings {
				fmt.Fprintf(warningWriter, "Warning: relcut settings in %s are ignored (using %s)\n", path, chosen)
			}
			continue
		}
		if err := k.Merge(sub); err != nil {
			return "", fmt.Errorf("merging %s: %w", path, err)
		}
		chosen = c.source
	}
	return chosen, nil
}

func loadExplicitProjectConfig(k *koanf.Koanf, path string) (ConfigSource, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := loadYAMLConfig(k, path, "project"); err != nil {
			return "", err
		}
		return ConfigSource(filepath.Base(path)), nil
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return "", &ValidationError{FilePath: path, Message: cleanParseError(err)}
	}
	return ConfigSource(filepath.Base(path)), nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	if token := os.Getenv("GITHUB_ACCESS_TOKEN"); token != "" && k.String("github_token") == "" {
		k.Set("github_token", token)
	}
	if token := os.Getenv("NPM_TOKEN"); token != "" && k.String("npm_token") == "" {
		k.Set("npm_token", token)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.ChangelogPath = expandHomePath(cfg.ChangelogPath)
	cfg.DistDir = expandHomePath(cfg.DistDir)
	return &cfg, nil
}

// EnvPrefix marks environment variables that override config keys.
const EnvPrefix = "RELCUT_"

// envTransform converts environment variable names to config keys
// Example: RELCUT_CHANGELOG_PATH -> changelog_path
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// ResolvePath joins a configured path to dir unless it is absolute.
func ResolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Message renders the release commit subject for version.
func (c *Configuration) Message(version string) string {
	return strings.ReplaceAll(c.ReleaseMessage, "{version}", version)
}

// Settings returns the effective values keyed by configuration key. Tokens
// are masked unless reveal is set.
func (c *Configuration) Settings(reveal bool) map[string]interface{} {
	hooks := c.Hooks
	if hooks == nil {
		hooks = map[string][]string{}
	}
	packages := c.Packages
	if packages == nil {
		packages = []string{}
	}
	return map[string]interface{}{
		"branch":            c.Branch,
		"repo":              c.Repo,
		"remote":            c.Remote,
		"changelog_path":    c.ChangelogPath,
		"dist_dir":          c.DistDir,
		"release_message":   c.ReleaseMessage,
		"packages":          packages,
		"since_last_stable": c.SinceLastStable,
		"resolve_backports": c.ResolveBackports,
		"github_token":      maskSecret(c.GitHubToken, reveal),
		"npm_registry":      c.NPMRegistry,
		"npm_token":         maskSecret(c.NPMToken, reveal),
		"hooks":             hooks,
	}
}

func maskSecret(s string, reveal bool) string {
	if reveal || s == "" {
		return s
	}
	return "********"
}
