// Package shared provides constants and helpers used across CLI subpackages.
package shared

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// Exit codes for the relcut CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitInvalidArguments = 3
	ExitConfiguration    = 4
	ExitVersion          = 5
	ExitBuild            = 6
	ExitNetwork          = 7
)

// Command group IDs shown in help output.
const (
	GroupRelease       = "release"
	GroupChangelog     = "changelog"
	GroupConfiguration = "configuration"
	GroupInfo          = "info"
)

// ExitError carries an explicit exit code without a message of its own.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError returns an error that makes the process exit with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode maps err to the process exit code: an ExitError's own code, the
// code of a categorized CLIError, or ExitFailure for anything else.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	cliErr := relerrors.AsCLIError(err)
	if cliErr == nil {
		return ExitFailure
	}
	switch cliErr.Category {
	case relerrors.Argument:
		return ExitInvalidArguments
	case relerrors.Configuration:
		return ExitConfiguration
	case relerrors.Version:
		return ExitVersion
	case relerrors.Build:
		return ExitBuild
	case relerrors.Network:
		return ExitNetwork
	default:
		return ExitFailure
	}
}

// ExactArgs is cobra.ExactArgs reporting an Argument error with usage.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return relerrors.NewArgumentErrorWithUsage(
				fmt.Sprintf("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args)),
				cmd.UseLine(),
			)
		}
		return nil
	}
}
