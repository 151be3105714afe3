package cli

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/relcut/internal/build"
	"github.com/ariel-frischer/relcut/internal/changelog"
	"github.com/ariel-frischer/relcut/internal/config"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/forge"
	"github.com/ariel-frischer/relcut/internal/git"
	"github.com/ariel-frischer/relcut/internal/manifest"
)

// forgeClient is the GitHub surface the commands use.
type forgeClient interface {
	changelog.Forge
	LatestDraftRelease(ctx context.Context, repo, auth string) (*forge.Release, error)
}

// Seams replaced in tests.
var (
	newRunner = func(log zerolog.Logger) build.Runner {
		return build.NewExecRunner(log)
	}
	newForge = func(token string, log zerolog.Logger) (forgeClient, error) {
		return forge.NewGitHub(token, forge.WithLogger(log))
	}
)

// app is the per-invocation state shared by commands.
type app struct {
	dir    string
	cfg    *config.Configuration
	log    zerolog.Logger
	runner build.Runner
}

func loadApp(cmd *cobra.Command) (*app, error) {
	dir, err := filepath.Abs(dirFlag)
	if err != nil {
		return nil, relerrors.WrapWithMessage(err, relerrors.Argument, "resolving --dir")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:        dir,
		ProjectConfigPath: configFlag,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, relerrors.WrapWithMessage(err, relerrors.Configuration, "loading configuration",
			"Fix the file named above",
			"Or inspect the effective settings with: relcut config show")
	}

	log := newLogger(cmd.ErrOrStderr())
	log.Debug().Str("dir", dir).Str("source", string(cfg.Source)).Msg("loaded configuration")
	return &app{dir: dir, cfg: cfg, log: log, runner: newRunner(log)}, nil
}

func (a *app) project() *manifest.Project {
	return manifest.NewProject(a.dir, a.runner, a.log)
}

func (a *app) workspace() *manifest.Workspace {
	return &manifest.Workspace{Root: a.dir, Packages: a.cfg.Packages, Runner: a.runner, Log: a.log}
}

func (a *app) path(p string) string {
	return config.ResolvePath(a.dir, p)
}

func (a *app) repository() (*git.Repository, error) {
	return git.Open(a.dir)
}

func (a *app) forge() (forgeClient, error) {
	f, err := newForge(a.cfg.GitHubToken, a.log)
	if err != nil {
		return nil, relerrors.WrapWithMessage(err, relerrors.Configuration, "creating GitHub client")
	}
	return f, nil
}

func (a *app) runHooks(ctx context.Context, hook string) error {
	return build.RunHooks(ctx, a.runner, a.dir, hook, a.cfg.Hooks, a.log)
}

// hookFunc runs configured hooks in a given package directory.
func (a *app) hookFunc() build.HookFunc {
	return func(ctx context.Context, dir, hook string) error {
		return build.RunHooks(ctx, a.runner, dir, hook, a.cfg.Hooks, a.log)
	}
}

// resolveRepo picks the GitHub slug: explicit value, then config, then the
// configured remote.
func (a *app) resolveRepo(repo *git.Repository, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if a.cfg.Repo != "" {
		return a.cfg.Repo, nil
	}
	if repo != nil {
		if slug, err := repo.RemoteSlug(a.cfg.Remote); err == nil {
			return slug, nil
		}
	}
	return "", relerrors.RepoNotDetected()
}

// resolveBranch picks the base branch: explicit value, then config, then
// the checked-out branch.
func (a *app) resolveBranch(repo *git.Repository, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if a.cfg.Branch != "" {
		return a.cfg.Branch, nil
	}
	branch, err := repo.CurrentBranch()
	if err != nil {
		return "", relerrors.WrapWithMessage(err, relerrors.Configuration, "detecting the current branch",
			"Pass --branch")
	}
	return branch, nil
}
