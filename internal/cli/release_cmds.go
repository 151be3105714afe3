package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relcut/internal/build"
	"github.com/ariel-frischer/relcut/internal/cli/shared"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/forge"
	"github.com/ariel-frischer/relcut/internal/npm"
	"github.com/ariel-frischer/relcut/internal/output"
	"github.com/ariel-frischer/relcut/internal/progress"
	"github.com/ariel-frischer/relcut/internal/release"
)

var (
	buildClean    bool
	releaseFormat string
	npmToken      string
	npmRegistry   string
	npmrcPath     string
	draftRepo     string
	draftFormat   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build distribution artifacts",
	Long: `Build every configured package into dist_dir: Python packages with
"python -m build", npm packages with "npm pack". Hybrid packages get both.`,
	Example: `  relcut build
  relcut build --clean`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var releaseCommitCmd = &cobra.Command{
	Use:   "release-commit <version>",
	Short: "Commit the release with the SHA256 hashes of its artifacts",
	Long: `Hash every file in dist_dir and create one commit holding the artifacts
and any tracked edits, such as the version bump. The message is the
release_message setting followed by a "SHA256 hashes:" block.`,
	Example: `  relcut release-commit 1.2.0
  relcut release-commit 1.2.0 --format json`,
	Args: shared.ExactArgs(1),
	RunE: runReleaseCommit,
}

var npmConfigCmd = &cobra.Command{
	Use:   "npm-config",
	Short: "Write the npm auth token into .npmrc",
	Example: `  NPM_TOKEN=... relcut npm-config
  relcut npm-config --token "$TOKEN" --registry https://npm.example.com/`,
	Args: cobra.NoArgs,
	RunE: runNpmConfig,
}

var latestDraftCmd = &cobra.Command{
	Use:   "latest-draft",
	Short: "Show the most recently created draft release",
	Example: `  relcut latest-draft
  relcut latest-draft --format json`,
	Args: cobra.NoArgs,
	RunE: runLatestDraft,
}

func init() {
	buildCmd.GroupID = shared.GroupRelease
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Remove dist_dir before building")
	rootCmd.AddCommand(buildCmd)

	releaseCommitCmd.GroupID = shared.GroupRelease
	releaseCommitCmd.Flags().StringVar(&releaseFormat, "format", "text", "Hash output format: text, json or yaml")
	rootCmd.AddCommand(releaseCommitCmd)

	npmConfigCmd.GroupID = shared.GroupRelease
	npmConfigCmd.Flags().StringVar(&npmToken, "token", "", "npm auth token (default: npm_token setting or NPM_TOKEN)")
	npmConfigCmd.Flags().StringVar(&npmRegistry, "registry", "", "Registry URL (default: npm_registry setting)")
	npmConfigCmd.Flags().StringVar(&npmrcPath, "npmrc", "", "File to write (default: ~/.npmrc)")
	rootCmd.AddCommand(npmConfigCmd)

	latestDraftCmd.GroupID = shared.GroupRelease
	latestDraftCmd.Flags().StringVar(&draftRepo, "repo", "", "GitHub repository owner/name")
	latestDraftCmd.Flags().StringVar(&draftFormat, "format", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(latestDraftCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	distDir := a.path(a.cfg.DistDir)

	if buildClean {
		if err := os.RemoveAll(distDir); err != nil {
			return relerrors.WrapWithMessage(err, relerrors.Build, "cleaning "+distDir)
		}
	}
	if err := a.runHooks(ctx, build.HookBeforeBuild); err != nil {
		return err
	}

	caps := progress.DetectTerminalCapabilities()
	if plainFlag {
		caps = progress.TerminalCapabilities{}
	}
	display := progress.NewProgressDisplay(cmd.ErrOrStderr(), caps)

	projects := a.workspace().Projects()
	var artifacts []string
	for i, p := range projects {
		name, _ := filepath.Rel(a.dir, p.Dir)
		if name == "." {
			name = filepath.Base(p.Dir)
		}
		step := progress.StepInfo{Name: "Building " + filepath.ToSlash(name), Number: i + 1, Total: len(projects)}
		err := display.Run(step, func() error {
			var err error
			artifacts, err = build.BuildAll(ctx, p.Dir, distDir, build.Backends(p.Dir, a.runner), a.hookFunc(), a.log)
			return err
		})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, f := range artifacts {
		rel, err := filepath.Rel(a.dir, f)
		if err != nil {
			rel = f
		}
		fmt.Fprintln(out, filepath.ToSlash(rel))
	}
	return a.runHooks(ctx, build.HookAfterBuild)
}

func runReleaseCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := output.ParseFormat(releaseFormat)
	if err != nil {
		return relerrors.Wrap(err, relerrors.Argument)
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	repo, err := a.repository()
	if err != nil {
		return err
	}

	if err := a.runHooks(ctx, build.HookBeforeReleaseCommit); err != nil {
		return err
	}

	commit, err := release.CreateReleaseCommit(repo, args[0], release.Options{
		DistDir: a.path(a.cfg.DistDir),
		Message: a.cfg.ReleaseMessage,
	})
	if err != nil {
		return err
	}
	a.log.Info().Str("commit", commit.Hash()).Str("version", args[0]).Msg("created release commit")

	if err := output.PrintHashes(cmd.OutOrStdout(), commit.Hashes(), format); err != nil {
		return err
	}
	return a.runHooks(ctx, build.HookAfterReleaseCommit)
}

func runNpmConfig(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	token := npmToken
	if token == "" {
		token = a.cfg.NPMToken
	}
	registry := npmRegistry
	if registry == "" {
		registry = a.cfg.NPMRegistry
	}
	path := npmrcPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return relerrors.WrapWithMessage(err, relerrors.Configuration, "locating home directory", "Pass --npmrc")
		}
		path = filepath.Join(home, ".npmrc")
	}

	if err := npm.HandleNpmConfig(token, registry, path); err != nil {
		return err
	}
	output.PrintSuccess(cmd.OutOrStdout(), "Wrote npm auth token to "+path)
	return nil
}

func runLatestDraft(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(draftFormat)
	if err != nil {
		return relerrors.Wrap(err, relerrors.Argument)
	}
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	draft, err := latestDraft(cmd, a, draftRepo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == output.FormatText {
		fmt.Fprintf(out, "%s (%s)\n%s\n", draft.Name, draft.TagName, draft.URL)
		return nil
	}
	return output.PrintMap(out, map[string]string{
		"name":       draft.Name,
		"tag":        draft.TagName,
		"url":        draft.URL,
		"created_at": draft.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}, format)
}

// latestDraft fetches the newest draft release, failing when there is none.
func latestDraft(cmd *cobra.Command, a *app, explicitRepo string) (*forge.Release, error) {
	repo, _ := a.repository()
	slug, err := a.resolveRepo(repo, explicitRepo)
	if err != nil {
		return nil, err
	}
	client, err := a.forge()
	if err != nil {
		return nil, err
	}
	draft, err := client.LatestDraftRelease(cmd.Context(), slug, "")
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, relerrors.NewConfigError("no draft release in "+slug,
			"Create a draft release on GitHub first")
	}
	return draft, nil
}
