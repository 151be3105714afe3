package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/relcut/config.yml
// - macOS: ~/Library/Application Support/relcut/config.yml
// - Windows: %APPDATA%\relcut\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "relcut"), nil
}

// ProjectConfigPath returns the path of the dedicated project config file in dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, string(SourceRelcutTOML))
}
