package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/relcut/internal/cli/shared"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/testutil"
)

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "relcut", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, rootCmd.Long, ".relcut.toml")
	assert.Contains(t, rootCmd.Example, "relcut bump-version patch")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		flagName     string
		wantShortcut string
	}{
		"dir":    {flagName: "dir", wantShortcut: "C"},
		"config": {flagName: "config"},
		"debug":  {flagName: "debug"},
		"plain":  {flagName: "plain"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.wantShortcut, flag.Shorthand)
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	groups := make(map[string]string)
	for _, cmd := range rootCmd.Commands() {
		groups[cmd.Name()] = cmd.GroupID
	}

	tests := map[string]string{
		"get-version":    shared.GroupRelease,
		"bump-version":   shared.GroupRelease,
		"build":          shared.GroupRelease,
		"release-commit": shared.GroupRelease,
		"npm-config":     shared.GroupRelease,
		"latest-draft":   shared.GroupRelease,
		"changelog":      shared.GroupChangelog,
		"config":         shared.GroupConfiguration,
		"version":        shared.GroupInfo,
		"doctor":         shared.GroupInfo,
	}
	for name, group := range tests {
		got, ok := groups[name]
		if assert.True(t, ok, "Should have %s command", name) {
			assert.Equal(t, group, got, "group of %s", name)
		}
	}
}

func TestRootCmd_Groups(t *testing.T) {
	t.Parallel()

	ids := make(map[string]bool)
	for _, g := range rootCmd.Groups() {
		ids[g.ID] = true
	}
	for _, id := range []string{shared.GroupRelease, shared.GroupChangelog, shared.GroupConfiguration, shared.GroupInfo} {
		assert.True(t, ids[id], "Should have %s group", id)
	}
}

func TestExecute_Help(t *testing.T) {
	// Cannot run in parallel due to global rootCmd state
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--help"})

	require.NoError(t, Execute())
	assert.Contains(t, buf.String(), "Release Commands:")
	assert.Contains(t, buf.String(), "Changelog Commands:")
}

func TestExecute_PrintsErrors(t *testing.T) {
	newHarness(t)
	repo := testutil.NewGitRepo(t)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	var stderr bytes.Buffer
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--plain", "--dir", repo.Dir, "changelog", "check", "1.0.0"})

	err := Execute()
	require.Error(t, err)
	assert.Equal(t, shared.ExitConfiguration, shared.ExitCode(err))
	assert.Contains(t, stderr.String(), "CHANGELOG.md")
}

func TestPrintError(t *testing.T) {
	t.Parallel()

	cause := relerrors.NewVersionError("tag v1.0.0 already exists", "Choose a different version")

	tests := map[string]struct {
		err          error
		wantContains []string
		wantEmpty    bool
	}{
		"categorized error": {
			err:          cause,
			wantContains: []string{"tag v1.0.0 already exists", "Choose a different version"},
		},
		"wrapped categorized error keeps the wrapper message": {
			err:          errors.Join(errors.New("bumping packages/pkg1"), cause),
			wantContains: []string{"bumping packages/pkg1", "tag v1.0.0 already exists"},
		},
		"plain error": {
			err:          errors.New("boom"),
			wantContains: []string{"boom"},
		},
		"exit error is silent": {
			err:       shared.NewExitError(shared.ExitFailure),
			wantEmpty: true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			printError(&buf, tt.err)
			if tt.wantEmpty {
				assert.Empty(t, buf.String())
				return
			}
			for _, want := range tt.wantContains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestUnknownFlagIsArgumentError(t *testing.T) {
	h := newHarness(t)

	res := h.run(t.TempDir(), "get-version", "--bogus")
	require.Error(t, res.err)
	assert.Equal(t, shared.ExitInvalidArguments, shared.ExitCode(res.err))
	assert.Contains(t, res.err.Error(), "bogus")
}
