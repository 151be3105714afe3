package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	clicfg "github.com/ariel-frischer/relcut/internal/cli/config"
	"github.com/ariel-frischer/relcut/internal/cli/shared"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/git"
)

var (
	dirFlag    string
	configFlag string
	debugFlag  bool
	plainFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "relcut",
	Short: "Cut releases for Python, npm and hybrid repositories",
	Long: `relcut bumps versions across package manifests, generates changelog entries
from merged GitHub pull requests, builds artifacts and records them in a
release commit with their SHA256 hashes.

Configuration is read from .relcut.toml, [tool.relcut] in pyproject.toml or
the "relcut" key of package.json, with RELCUT_* environment overrides.`,
	Example: `  # Show the current version
  relcut get-version

  # Bump to the next patch release and write the changelog entry
  relcut bump-version patch
  relcut changelog update "$(relcut get-version)"

  # Build and record the release commit
  relcut build
  relcut release-commit "$(relcut get-version)"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if plainFlag || !term.IsTerminal(int(os.Stdout.Fd())) {
			color.NoColor = true
		}
		if debugFlag {
			log := newLogger(cmd.ErrOrStderr())
			git.SetDebugLogger(func(format string, args ...any) {
				log.Debug().Msgf(format, args...)
			})
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Project config file to use instead of searching --dir")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "Plain output (no colors or icons)")

	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: shared.GroupChangelog, Title: "Changelog Commands:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration Commands:"},
		&cobra.Group{ID: shared.GroupInfo, Title: "Information:"},
	)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return relerrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	clicfg.ConfigCmd.GroupID = shared.GroupConfiguration
	rootCmd.AddCommand(clicfg.ConfigCmd)
}

// newLogger returns the console logger used by every command. Debug output
// is enabled with --debug.
func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if debugFlag {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor, PartsExclude: []string{zerolog.TimestampFieldName}}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Execute runs the root command and prints a failure.
// The returned error maps to an exit code through shared.ExitCode.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	var exitErr *shared.ExitError
	if errors.As(err, &exitErr) {
		return
	}
	cliErr := relerrors.AsCLIError(err)
	if cliErr == nil {
		fmt.Fprint(w, relerrors.FormatSimpleError(err, relerrors.Runtime))
		return
	}
	if error(cliErr) != err {
		wrapped := *cliErr
		wrapped.Message = err.Error()
		cliErr = &wrapped
	}
	relerrors.FprintError(w, cliErr)
}
