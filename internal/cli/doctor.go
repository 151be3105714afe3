package cli

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relcut/internal/cli/shared"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/health"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the repository and machine can cut a release",
	Long: `Check that configuration loads, the directory is a git repository, and the
build tools each package needs (python, hatch, npm) are on PATH.

Checks marked ○ are advisory and do not fail the command.`,
	Example: `  relcut doctor
  relcut doctor -C packages/web`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(dirFlag)
		if err != nil {
			return relerrors.WrapWithMessage(err, relerrors.Argument, "resolving --dir")
		}

		report := health.RunHealthChecks(health.Options{
			Dir:        dir,
			ConfigPath: configFlag,
			LookPath:   lookPath,
		})
		fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

		if !report.Passed {
			return shared.NewExitError(shared.ExitFailure)
		}
		return nil
	},
}

func init() {
	doctorCmd.GroupID = shared.GroupInfo
	rootCmd.AddCommand(doctorCmd)
}
