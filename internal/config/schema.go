package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ariel-frischer/relcut/internal/build"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeString
	TypeURL
	TypeRepo
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeURL:
		return "url"
	case TypeRepo:
		return "owner/name"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path        string          // Dotted key path (e.g., "hooks.before-build")
	Type        ConfigValueType // Expected value type for validation
	Description string          // Human-readable description for help text
	Default     interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"branch": {
		Path:        "branch",
		Type:        TypeString,
		Description: "Base branch for changelog queries (empty = current branch)",
		Default:     "",
	},
	"repo": {
		Path:        "repo",
		Type:        TypeRepo,
		Description: "GitHub repository as owner/name (empty = derived from the remote)",
		Default:     "",
	},
	"remote": {
		Path:        "remote",
		Type:        TypeString,
		Description: "Git remote used for repository discovery",
		Default:     "origin",
	},
	"changelog_path": {
		Path:        "changelog_path",
		Type:        TypeString,
		Description: "Changelog file updated with new entries",
		Default:     "CHANGELOG.md",
	},
	"dist_dir": {
		Path:        "dist_dir",
		Type:        TypeString,
		Description: "Directory holding build artifacts",
		Default:     "dist",
	},
	"release_message": {
		Path:        "release_message",
		Type:        TypeString,
		Description: "Release commit subject; {version} is substituted",
		Default:     "Publish {version}",
	},
	"packages": {
		Path:        "packages",
		Type:        TypeList,
		Description: "Comma-separated sub-package directories bumped by --all",
		Default:     []string{},
	},
	"since_last_stable": {
		Path:        "since_last_stable",
		Type:        TypeBool,
		Description: "Start changelog ranges at the last stable tag",
		Default:     false,
	},
	"resolve_backports": {
		Path:        "resolve_backports",
		Type:        TypeBool,
		Description: "Credit backport PRs to the PR they carry",
		Default:     false,
	},
	"github_token": {
		Path:        "github_token",
		Type:        TypeString,
		Description: "GitHub API token (prefer GITHUB_ACCESS_TOKEN)",
		Default:     "",
	},
	"npm_registry": {
		Path:        "npm_registry",
		Type:        TypeURL,
		Description: "npm registry receiving the auth token",
		Default:     "https://registry.npmjs.org/",
	},
	"npm_token": {
		Path:        "npm_token",
		Type:        TypeString,
		Description: "npm auth token (prefer NPM_TOKEN)",
		Default:     "",
	},
}

func init() {
	for _, hook := range build.HookNames {
		key := "hooks." + hook
		KnownKeys[key] = ConfigKeySchema{
			Path:        key,
			Type:        TypeList,
			Description: "Comma-separated shell commands run at " + hook,
			Default:     []string{},
		}
	}
}

// SortedKeys returns every known key path in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeURL:
		return parseURLValue(value)
	case TypeRepo:
		return parseRepoValue(value)
	case TypeList:
		return parseListValue(value), nil
	case TypeString:
		if schema.Path == "release_message" && !strings.Contains(value, "{version}") {
			return ParsedValue{}, fmt.Errorf("invalid release message: %q (must contain {version})", value)
		}
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseURLValue validates an absolute URL.
func parseURLValue(value string) (ParsedValue, error) {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ParsedValue{}, fmt.Errorf("invalid URL: %q (example: https://registry.npmjs.org/)", value)
	}
	return ParsedValue{Raw: value, Parsed: value, Type: TypeURL}, nil
}

// parseRepoValue validates an owner/name pair. Empty clears the setting.
func parseRepoValue(value string) (ParsedValue, error) {
	if value != "" && !repoPattern.MatchString(value) {
		return ParsedValue{}, fmt.Errorf("invalid repository: %q (expected owner/name)", value)
	}
	return ParsedValue{Raw: value, Parsed: value, Type: TypeRepo}, nil
}

// parseListValue splits a comma-separated value, dropping empty items.
func parseListValue(value string) ParsedValue {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return ParsedValue{Raw: value, Parsed: items, Type: TypeList}
}
