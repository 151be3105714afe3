package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relcut/internal/changelog"
	"github.com/ariel-frischer/relcut/internal/cli/shared"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/output"
)

// entryFlags are shared by the commands that generate an entry.
type entryFlags struct {
	repo             string
	branch           string
	ref              string
	since            string
	until            string
	sinceLastStable  bool
	resolveBackports bool
	fetchTags        bool
}

var (
	entryOpts         entryFlags
	updateOpts        entryFlags
	changelogPathFlag string
	updateForce       bool
	titlesNotesFile   string
	titlesFromDraft   bool
)

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Generate, splice and check changelog entries",
	Long: `Generate changelog entries from pull requests merged since the previous
release tag and splice them into the project changelog.

New entries go right after the "<!-- <START NEW CHANGELOG ENTRY> -->" marker,
or above the first "## " heading when the marker is missing. Everything else
in the file is kept as written.`,
}

var changelogEntryCmd = &cobra.Command{
	Use:   "entry <version>",
	Short: "Print the changelog entry for a version",
	Example: `  relcut changelog entry 1.2.0
  relcut changelog entry 1.2.0 --since v1.0.0 --plain > notes.md`,
	Args: shared.ExactArgs(1),
	RunE: runChangelogEntry,
}

var changelogUpdateCmd = &cobra.Command{
	Use:   "update <version>",
	Short: "Generate the entry for a version and splice it into the changelog",
	Example: `  relcut changelog update 1.2.0
  relcut changelog update 1.2.0 --since-last-stable --resolve-backports`,
	Args: shared.ExactArgs(1),
	RunE: runChangelogUpdate,
}

var changelogCheckCmd = &cobra.Command{
	Use:     "check <version>",
	Short:   "Fail unless the changelog has an entry for a version",
	Example: `  relcut changelog check 1.2.0`,
	Args:    shared.ExactArgs(1),
	RunE:    runChangelogCheck,
}

var changelogTitlesCmd = &cobra.Command{
	Use:   "titles <version>",
	Short: "Apply GitHub release note titles to a changelog entry",
	Long: `Rewrite the pull request titles of a changelog entry with those of a
GitHub-generated release body, matched by PR number. Text above the body's
"## What's Changed" heading is placed under the entry heading.`,
	Example: `  relcut changelog titles 1.2.0 --release-notes notes.md
  relcut changelog titles 1.2.0 --from-draft`,
	Args: shared.ExactArgs(1),
	RunE: runChangelogTitles,
}

func init() {
	changelogCmd.GroupID = shared.GroupChangelog
	rootCmd.AddCommand(changelogCmd)

	addEntryFlags(changelogEntryCmd, &entryOpts)
	changelogCmd.AddCommand(changelogEntryCmd)

	addEntryFlags(changelogUpdateCmd, &updateOpts)
	changelogUpdateCmd.Flags().BoolVar(&updateForce, "force", false, "Add the entry even when the version already has one")
	changelogCmd.AddCommand(changelogUpdateCmd)

	changelogCmd.AddCommand(changelogCheckCmd)

	changelogTitlesCmd.Flags().StringVar(&titlesNotesFile, "release-notes", "", "File holding a GitHub release body")
	changelogTitlesCmd.Flags().BoolVar(&titlesFromDraft, "from-draft", false, "Use the body of the latest draft release")
	changelogTitlesCmd.MarkFlagsMutuallyExclusive("release-notes", "from-draft")
	changelogTitlesCmd.MarkFlagsOneRequired("release-notes", "from-draft")
	changelogCmd.AddCommand(changelogTitlesCmd)

	changelogCmd.PersistentFlags().StringVar(&changelogPathFlag, "changelog-path", "", "Changelog file (default: changelog_path setting)")
}

func addEntryFlags(cmd *cobra.Command, f *entryFlags) {
	cmd.Flags().StringVar(&f.repo, "repo", "", "GitHub repository owner/name (default: repo setting or the remote)")
	cmd.Flags().StringVar(&f.branch, "branch", "", "Base branch of the pull requests (default: branch setting or current branch)")
	cmd.Flags().StringVar(&f.ref, "ref", "", "Local ref whose tags bound the range (default: HEAD)")
	cmd.Flags().StringVar(&f.since, "since", "", "Start of the range (default: latest tag, else the root commit)")
	cmd.Flags().StringVar(&f.until, "until", "", "End of the range (default: now)")
	cmd.Flags().BoolVar(&f.sinceLastStable, "since-last-stable", false, "Start at the latest stable tag")
	cmd.Flags().BoolVar(&f.resolveBackports, "resolve-backports", false, "Credit backport PRs to the PR they carry")
	cmd.Flags().BoolVar(&f.fetchTags, "fetch-tags", false, "Fetch tags from the remote first")
}

func (a *app) changelogPath() string {
	if changelogPathFlag != "" {
		return a.path(changelogPathFlag)
	}
	return a.path(a.cfg.ChangelogPath)
}

// generateEntry renders the entry for version using f layered over config.
func generateEntry(cmd *cobra.Command, a *app, version string, f entryFlags) (string, error) {
	ctx := cmd.Context()
	repo, err := a.repository()
	if err != nil {
		return "", err
	}
	if f.fetchTags {
		if err := repo.FetchTags(ctx, a.cfg.Remote, a.cfg.GitHubToken); err != nil {
			return "", relerrors.NewNetworkError(err, "fetching tags from "+a.cfg.Remote)
		}
	}

	slug, err := a.resolveRepo(repo, f.repo)
	if err != nil {
		return "", err
	}
	branch, err := a.resolveBranch(repo, f.branch)
	if err != nil {
		return "", err
	}
	client, err := a.forge()
	if err != nil {
		return "", err
	}

	gen := &changelog.Generator{VCS: repo, Forge: client, Log: a.log}
	return gen.GetVersionEntry(ctx, changelog.EntryRequest{
		Ref:              f.ref,
		Branch:           branch,
		Repo:             slug,
		Version:          version,
		Since:            f.since,
		Until:            f.until,
		SinceLastStable:  f.sinceLastStable || a.cfg.SinceLastStable,
		ResolveBackports: f.resolveBackports || a.cfg.ResolveBackports,
	})
}

func runChangelogEntry(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	entry, err := generateEntry(cmd, a, args[0], entryOpts)
	if err != nil {
		return err
	}
	return changelog.FormatTerminal(entry, cmd.OutOrStdout(), changelog.FormatOptions{Plain: color.NoColor})
}

func runChangelogUpdate(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	path := a.changelogPath()
	version := args[0]

	if !updateForce {
		if data, err := os.ReadFile(path); err == nil && changelog.CheckEntry(string(data), version) == nil {
			return relerrors.NewVersionError(
				fmt.Sprintf("%s already has an entry for %s", path, version),
				"Pass --force to add another entry",
			)
		}
	}

	entry, err := generateEntry(cmd, a, version, updateOpts)
	if err != nil {
		return err
	}
	if err := changelog.UpdateFile(path, entry); err != nil {
		return err
	}
	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Added %s to %s", version, path))
	return nil
}

func runChangelogCheck(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	path := a.changelogPath()
	if err := changelog.CheckFile(path, args[0]); err != nil {
		return err
	}
	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s has an entry for %s", path, args[0]))
	return nil
}

func runChangelogTitles(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	var body string
	if titlesFromDraft {
		draft, err := latestDraft(cmd, a, "")
		if err != nil {
			return err
		}
		body = draft.Body
	} else {
		data, err := os.ReadFile(a.path(titlesNotesFile))
		if err != nil {
			return relerrors.WrapWithMessage(err, relerrors.Argument, "reading release notes")
		}
		body = string(data)
	}

	path := a.changelogPath()
	if err := changelog.ApplyTitlesToFile(path, args[0], body); err != nil {
		return err
	}
	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Updated titles of %s in %s", args[0], path))
	return nil
}
