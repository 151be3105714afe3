package build

import (
	"context"

	"github.com/rs/zerolog"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// Hook names recognized in configuration.
const (
	HookBeforeBumpVersion   = "before-bump-version"
	HookAfterBumpVersion    = "after-bump-version"
	HookBeforeBuild         = "before-build"
	HookAfterBuild          = "after-build"
	HookBeforeReleaseCommit = "before-release-commit"
	HookAfterReleaseCommit  = "after-release-commit"

	// Ecosystem variants run around one backend's build step, in the
	// package directory.
	HookBeforeBuildPython = "before-build-python"
	HookAfterBuildPython  = "after-build-python"
	HookBeforeBuildNPM    = "before-build-npm"
	HookAfterBuildNPM     = "after-build-npm"
)

// HookNames lists every valid hook name.
var HookNames = []string{
	HookBeforeBumpVersion,
	HookAfterBumpVersion,
	HookBeforeBuild,
	HookAfterBuild,
	HookBeforeBuildPython,
	HookAfterBuildPython,
	HookBeforeBuildNPM,
	HookAfterBuildNPM,
	HookBeforeReleaseCommit,
	HookAfterReleaseCommit,
}

// EcosystemHook returns the variant of hook scoped to eco, such as
// "before-build-npm".
func EcosystemHook(hook string, eco Ecosystem) string {
	return hook + "-" + string(eco)
}

// HookFunc runs the commands configured for hook in dir.
type HookFunc func(ctx context.Context, dir, hook string) error

// RunHooks runs the shell commands configured for hook in order, stopping at
// the first failure.
func RunHooks(ctx context.Context, runner Runner, dir, hook string, hooks map[string][]string, log zerolog.Logger) error {
	for _, cmd := range hooks[hook] {
		log.Info().Str("hook", hook).Str("cmd", cmd).Msg("running hook")
		out, err := runner.Run(ctx, dir, "sh", "-c", cmd)
		if err != nil {
			return relerrors.BuildCommandFailed(hook+": "+cmd, err)
		}
		if out != "" {
			log.Debug().Str("hook", hook).Msg(out)
		}
	}
	return nil
}
