package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ariel-frischer/relcut/internal/build"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/forge"
	"github.com/ariel-frischer/relcut/internal/testutil"
)

// stubForge serves canned GitHub data to the changelog and draft commands.
type stubForge struct {
	prs     []forge.PullRequest
	byNum   map[int]forge.PullRequest
	draft   *forge.Release
	err     error
	queries []forge.ActivityQuery
}

func (f *stubForge) ListMergedPRs(_ context.Context, q forge.ActivityQuery) ([]forge.PullRequest, error) {
	f.queries = append(f.queries, q)
	return f.prs, f.err
}

func (f *stubForge) GetPR(_ context.Context, repo string, number int, _ string) (forge.PullRequest, error) {
	pr, ok := f.byNum[number]
	if !ok {
		return forge.PullRequest{}, relerrors.NewNetworkError(errors.New("404 Not Found"), fmt.Sprintf("fetching %s#%d", repo, number))
	}
	return pr, nil
}

func (f *stubForge) LatestDraftRelease(_ context.Context, _, _ string) (*forge.Release, error) {
	return f.draft, f.err
}

func mergedPR(n int, title, login string) forge.PullRequest {
	return forge.PullRequest{
		Number:   n,
		Title:    title,
		URL:      fmt.Sprintf("https://github.com/baz/bar/pull/%d", n),
		Author:   forge.User{Login: login},
		MergedAt: time.Date(2024, 2, n, 0, 0, 0, 0, time.UTC),
	}
}

// result is the captured outcome of one CLI invocation.
type result struct {
	stdout string
	stderr string
	err    error
}

// harness runs the root command in-process against fakes. Tests using it
// must not run in parallel: the command tree and its flags are global.
type harness struct {
	t      *testing.T
	runner *testutil.FakeRunner
	forge  *stubForge
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GITHUB_ACCESS_TOKEN", "")
	t.Setenv("NPM_TOKEN", "")

	h := &harness{t: t, runner: testutil.NewFakeRunner(), forge: &stubForge{}}

	origRunner, origForge, origNoColor := newRunner, newForge, color.NoColor
	newRunner = func(zerolog.Logger) build.Runner { return h.runner }
	newForge = func(string, zerolog.Logger) (forgeClient, error) { return h.forge, nil }
	t.Cleanup(func() {
		// RELCUT_CALL_LOG keeps a failed test's subprocess traffic for inspection.
		if path := os.Getenv("RELCUT_CALL_LOG"); path != "" && t.Failed() {
			_ = testutil.WriteCallLog(path, h.runner.Calls())
		}
		newRunner, newForge, color.NoColor = origRunner, origForge, origNoColor
		resetFlags(rootCmd)
	})
	return h
}

// run executes relcut with args in dir.
func (h *harness) run(dir string, args ...string) result {
	h.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--plain", "--dir", dir}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// resetFlags restores every flag in the tree to its default so state does
// not leak between invocations.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
