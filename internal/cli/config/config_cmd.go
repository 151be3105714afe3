// Package config provides the "relcut config" command group.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relcut/internal/cli/shared"
	"github.com/ariel-frischer/relcut/internal/config"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/output"
)

// Color helper functions for config command output
var (
	cGreen = color.New(color.FgGreen).SprintFunc()
	cDim   = color.New(color.Faint).SprintFunc()
	cBold  = color.New(color.Bold).SprintFunc()
)

// ConfigCmd is the parent of the configuration subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit relcut configuration",
	Long: `Inspect and edit relcut configuration.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (RELCUT_*, plus GITHUB_ACCESS_TOKEN and NPM_TOKEN)
  2. Project config: the first of .relcut.toml, [tool.relcut] in
     pyproject.toml, or the "relcut" key of package.json
  3. User config (~/.config/relcut/config.yml)
  4. Built-in defaults`,
	Example: `  # Show the effective configuration
  relcut config show

  # Set a value in the user config
  relcut config set remote upstream

  # List every key
  relcut config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Example: `  relcut config show
  relcut config show --format json --reveal`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in a YAML config file",
	Long: `Set a value in the user config (or the YAML file named by --file).
The key is checked against the known keys and the value against its type.
Comments and the order of other keys are kept.

List values are comma-separated: "relcut config set hooks.before-build 'make docs,make lint'".`,
	Example: `  relcut config set dist_dir build/dist
  relcut config set resolve_backports true
  relcut config set hooks.before-build "make docs" --file ci/relcut.yml`,
	Args: shared.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the known configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default user config",
	Long: `Write a commented default config file. An existing file is left
unchanged unless --force is given.`,
	Example: `  relcut config init
  relcut config init --file ci/relcut.yml --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configShowCmd.Flags().String("format", "yaml", "Output format: yaml or json")
	configShowCmd.Flags().Bool("reveal", false, "Print tokens instead of masking them")
	ConfigCmd.AddCommand(configShowCmd)

	configSetCmd.Flags().String("file", "", "YAML config file to edit (default: user config)")
	ConfigCmd.AddCommand(configSetCmd)

	ConfigCmd.AddCommand(configKeysCmd)

	configInitCmd.Flags().String("file", "", "File to write (default: user config)")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	ConfigCmd.AddCommand(configInitCmd)
}

// inheritedString reads a root persistent flag, falling back to def when the
// command runs detached from the root.
func inheritedString(cmd *cobra.Command, name, def string) string {
	if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
		return v
	}
	return def
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	reveal, _ := cmd.Flags().GetBool("reveal")

	format, err := output.ParseFormat(formatFlag)
	if err != nil || format == output.FormatText {
		return relerrors.NewArgumentError(fmt.Sprintf("unknown format %q", formatFlag), "Use yaml or json")
	}

	dir, err := ResolvePath(inheritedString(cmd, "dir", "."))
	if err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Argument, "resolving --dir")
	}
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:        dir,
		ProjectConfigPath: inheritedString(cmd, "config", ""),
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return relerrors.Wrap(err, relerrors.Configuration)
	}

	out := cmd.OutOrStdout()
	if format == output.FormatYAML {
		printSources(out, cfg)
	}
	return output.Encode(out, cfg.Settings(reveal), format)
}

// printSources writes the loaded layers as YAML comments.
func printSources(out io.Writer, cfg *config.Configuration) {
	fmt.Fprintln(out, "# Configuration Sources")
	if userPath, err := config.UserConfigPath(); err == nil {
		state := "not found"
		if _, err := os.Stat(userPath); err == nil {
			state = "loaded"
		}
		fmt.Fprintf(out, "#   user:    %s (%s)\n", userPath, state)
	}
	fmt.Fprintf(out, "#   project: %s\n", cfg.Source)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := targetPath(cmd)
	if err != nil {
		return err
	}
	if err := config.SetConfigValue(path, args[0], args[1]); err != nil {
		return relerrors.Wrap(err, relerrors.Configuration,
			"See the known keys with: relcut config keys")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s in %s\n", cGreen("✓"), cBold(args[0]), args[1], cDim(path))
	return nil
}

func runConfigKeys(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, key := range config.SortedKeys() {
		schema := config.KnownKeys[key]
		fmt.Fprintf(out, "%-24s %-8s %s\n", key, schema.Type, cDim(schema.Description))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	path, err := targetPath(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if exists && !force {
		fmt.Fprintf(out, "%s %s: exists at %s\n", cGreen("✓"), cBold("Config"), cDim(path))
		return nil
	}

	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return relerrors.Wrap(err, relerrors.Configuration)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "writing "+path)
	}

	action := "created"
	if exists {
		action = "overwritten"
	}
	fmt.Fprintf(out, "%s %s: %s at %s\n", cGreen("✓"), cBold("Config"), action, cDim(path))
	return nil
}

// targetPath resolves --file, defaulting to the user config.
func targetPath(cmd *cobra.Command) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		path, err := ResolvePath(file)
		if err != nil {
			return "", relerrors.WrapWithMessage(err, relerrors.Argument, "resolving --file")
		}
		return path, nil
	}
	path, err := config.UserConfigPath()
	if err != nil {
		return "", relerrors.WrapWithMessage(err, relerrors.Configuration, "locating the user config",
			"Pass --file")
	}
	return path, nil
}
