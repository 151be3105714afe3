package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relcut/internal/build"
	"github.com/ariel-frischer/relcut/internal/cli/shared"
	"github.com/ariel-frischer/relcut/internal/manifest"
	"github.com/ariel-frischer/relcut/internal/output"
)

var getVersionAll bool

var getVersionCmd = &cobra.Command{
	Use:   "get-version",
	Short: "Print the project's current version",
	Long: `Print the current version from the authoritative manifest: [project].version
in pyproject.toml, a hatch version file or backend, setup.py/setup.cfg, or
package.json, in that order.`,
	Example: `  relcut get-version
  relcut get-version --all   # every configured sub-package`,
	Args: cobra.NoArgs,
	RunE: runGetVersion,
}

var (
	bumpChangelogPath string
	bumpAll           bool
	bumpAllowTag      bool
)

var bumpVersionCmd = &cobra.Command{
	Use:   "bump-version <spec>",
	Short: "Bump the project version",
	Long: `Bump the project version. spec is an explicit version (1.2.0, 1.2.0a1,
1.2.0-rc.1) or one of:

  patch  1.0.2 -> 1.0.3, 1.0.3a5 -> 1.0.4
  minor  1.0.3a6 -> 1.1.0
  major  1.4.0 -> 2.0.0
  next   1.0.2 -> 1.0.3, 1.0.3a5 -> 1.0.3a6
  dev    0.0.1 -> 0.1.0.dev0, 0.1.0.dev0 -> 0.1.0.dev1

The new version must sort after the current one and its v-tag must not exist.
A sibling package.json is kept in step.`,
	Example: `  relcut bump-version patch
  relcut bump-version 2.0.0rc1
  relcut bump-version next --changelog-path CHANGELOG.md
  relcut bump-version minor --all`,
	Args: shared.ExactArgs(1),
	RunE: runBumpVersion,
}

func init() {
	getVersionCmd.GroupID = shared.GroupRelease
	getVersionCmd.Flags().BoolVar(&getVersionAll, "all", false, "Print the version of every configured package")
	rootCmd.AddCommand(getVersionCmd)

	bumpVersionCmd.GroupID = shared.GroupRelease
	bumpVersionCmd.Flags().StringVar(&bumpChangelogPath, "changelog-path", "",
		"Changelog whose newest entry is the base for bumping a dev release")
	bumpVersionCmd.Flags().BoolVar(&bumpAll, "all", false, "Bump every package listed in the packages setting")
	bumpVersionCmd.Flags().BoolVar(&bumpAllowTag, "allow-existing-tag", false, "Skip the existing-tag check")
	rootCmd.AddCommand(bumpVersionCmd)
}

func runGetVersion(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !getVersionAll {
		v, err := a.project().GetVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
		return nil
	}

	versions, err := a.workspace().Versions(cmd.Context())
	if err != nil {
		return err
	}
	return output.PrintMap(out, a.packageMap(versions), output.FormatText)
}

func runBumpVersion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	opts := manifest.BumpOptions{}
	if bumpChangelogPath != "" {
		opts.ChangelogPath = a.path(bumpChangelogPath)
	}
	if !bumpAllowTag {
		if repo, err := a.repository(); err == nil {
			opts.TagExists = repo.TagExists
		} else {
			a.log.Debug().Err(err).Msg("not a git repository, skipping tag check")
		}
	}

	if err := a.runHooks(ctx, build.HookBeforeBumpVersion); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if bumpAll {
		versions, err := a.workspace().BumpAll(ctx, args[0], opts)
		if err != nil {
			return err
		}
		if err := output.PrintMap(out, a.packageMap(versions), output.FormatText); err != nil {
			return err
		}
	} else {
		v, err := a.project().BumpVersion(ctx, args[0], opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, v)
	}

	return a.runHooks(ctx, build.HookAfterBumpVersion)
}

// packageMap keys versions by package directory relative to the project.
func (a *app) packageMap(versions []manifest.PackageVersion) map[string]string {
	m := make(map[string]string, len(versions))
	for _, pv := range versions {
		rel, err := filepath.Rel(a.dir, pv.Dir)
		if err != nil {
			rel = pv.Dir
		}
		m[filepath.ToSlash(rel)] = pv.Version
	}
	return m
}
