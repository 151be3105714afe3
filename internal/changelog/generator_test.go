package changelog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/forge"
	"github.com/ariel-frischer/relcut/internal/git"
	"github.com/ariel-frischer/relcut/internal/testutil"
)

type fakeForge struct {
	prs     []forge.PullRequest
	byNum   map[int]forge.PullRequest
	err     error
	queries []forge.ActivityQuery
}

func (f *fakeForge) ListMergedPRs(_ context.Context, q forge.ActivityQuery) ([]forge.PullRequest, error) {
	f.queries = append(f.queries, q)
	return f.prs, f.err
}

func (f *fakeForge) GetPR(_ context.Context, repo string, number int, _ string) (forge.PullRequest, error) {
	pr, ok := f.byNum[number]
	if !ok {
		return forge.PullRequest{}, relerrors.NewNetworkError(errors.New("404 Not Found"), fmt.Sprintf("fetching %s#%d", repo, number))
	}
	return pr, nil
}

type fakeVCS struct {
	latest string
	stable string
	root   string
}

func (v fakeVCS) LatestTag(_ string, stableOnly bool) (string, error) {
	if stableOnly {
		return v.stable, nil
	}
	return v.latest, nil
}

func (v fakeVCS) RootCommit(string) (string, error) { return v.root, nil }

func pr(n int, title, login string) forge.PullRequest {
	return forge.PullRequest{
		Number:   n,
		Title:    title,
		URL:      fmt.Sprintf("https://github.com/baz/bar/pull/%d", n),
		Author:   forge.User{Login: login},
		MergedAt: time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormatPREntry(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pr   forge.PullRequest
		want string
	}{
		"default profile": {
			pr:   pr(12, "Add widget", "bob"),
			want: "- Add widget [#12](https://github.com/baz/bar/pull/12) ([@bob](https://github.com/bob))",
		},
		"explicit profile and trimmed title": {
			pr: forge.PullRequest{
				Number: 3, Title: "  Fix bug ", URL: "https://x/pull/3",
				Author: forge.User{Login: "Alice", URL: "https://ghe.example.com/Alice"},
			},
			want: "- Fix bug [#3](https://x/pull/3) ([@Alice](https://ghe.example.com/Alice))",
		},
		"no author": {
			pr:   forge.PullRequest{Number: 4, Title: "Ghost", URL: "https://x/pull/4"},
			want: "- Ghost [#4](https://x/pull/4)",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatPREntry(tt.pr))
		})
	}
}

func TestGetVersionEntry(t *testing.T) {
	t.Parallel()

	f := &fakeForge{prs: []forge.PullRequest{pr(12, "Add widget", "bob"), pr(11, "Fix bug", "Alice")}}
	g := &Generator{VCS: fakeVCS{latest: "v0.0.1"}, Forge: f}

	entry, err := g.GetVersionEntry(context.Background(), EntryRequest{
		Repo: "baz/bar", Branch: "main", Version: "0.0.2", Auth: "tok",
	})
	require.NoError(t, err)

	want := "## 0.0.2\n\n" +
		"([Full Changelog](https://github.com/baz/bar/compare/v0.0.1...main))\n\n" +
		"### Merged PRs\n\n" +
		"- Add widget [#12](https://github.com/baz/bar/pull/12) ([@bob](https://github.com/bob))\n" +
		"- Fix bug [#11](https://github.com/baz/bar/pull/11) ([@Alice](https://github.com/Alice))\n\n" +
		"### Contributors to this release\n\n" +
		"[@Alice](https://github.com/Alice) | [@bob](https://github.com/bob)\n\n" +
		EndMarker + "\n"
	assert.Equal(t, want, entry)

	require.Len(t, f.queries, 1)
	assert.Equal(t, forge.ActivityQuery{Repo: "baz/bar", Branch: "main", Since: "v0.0.1", Auth: "tok"}, f.queries[0])
}

func TestGetVersionEntry_LogsPRSummaries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	f := &fakeForge{prs: []forge.PullRequest{pr(12, strings.Repeat("y", 80), "bob"), pr(11, "Fix bug", "Alice")}}
	g := &Generator{VCS: fakeVCS{latest: "v0.0.1"}, Forge: f, Log: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	_, err := g.GetVersionEntry(context.Background(), EntryRequest{Repo: "baz/bar", Branch: "main", Version: "0.0.2"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "[#12] "+strings.Repeat("y", 57)+"...")
	assert.Contains(t, buf.String(), "[#11] Fix bug")
}

func TestGetVersionEntry_CompareLink(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		req      EntryRequest
		contains string
		absent   string
	}{
		"until wins over branch": {
			req:      EntryRequest{Repo: "baz/bar", Branch: "main", Until: "v0.0.2", Version: "0.0.2"},
			contains: "compare/v0.0.1...v0.0.2",
		},
		"no head omits link": {
			req:    EntryRequest{Repo: "baz/bar", Version: "0.0.2"},
			absent: "Full Changelog",
		},
		"no repo omits link": {
			req:    EntryRequest{Branch: "main", Version: "0.0.2"},
			absent: "compare",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := &Generator{VCS: fakeVCS{latest: "v0.0.1"}, Forge: &fakeForge{}}
			entry, err := g.GetVersionEntry(context.Background(), tt.req)
			require.NoError(t, err)
			assert.NotContains(t, entry, "...None")
			if tt.contains != "" {
				assert.Contains(t, entry, tt.contains)
			}
			if tt.absent != "" {
				assert.NotContains(t, entry, tt.absent)
			}
		})
	}
}

func TestGetVersionEntry_NoActivity(t *testing.T) {
	t.Parallel()

	g := &Generator{VCS: fakeVCS{latest: "v0.0.1"}, Forge: &fakeForge{}}
	entry, err := g.GetVersionEntry(context.Background(), EntryRequest{Repo: "baz/bar", Branch: "main", Version: "0.0.2"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(entry, "## 0.0.2\n"))
	assert.Contains(t, entry, emptyActivity)
	assert.NotContains(t, entry, "Contributors")
	assert.Equal(t, "0.0.2", ExtractCurrentVersion(entry))
}

func TestGetVersionEntry_ForgeError(t *testing.T) {
	t.Parallel()

	f := &fakeForge{err: relerrors.NewNetworkError(errors.New("403 rate limited"), "searching pull requests")}
	g := &Generator{VCS: fakeVCS{latest: "v0.0.1"}, Forge: f}

	_, err := g.GetVersionEntry(context.Background(), EntryRequest{Repo: "baz/bar", Version: "0.0.2"})
	require.Error(t, err)
	assert.True(t, relerrors.Is(err, relerrors.Network))
}

func TestGetVersionEntry_Backports(t *testing.T) {
	t.Parallel()

	backport := pr(40, "Backport PR #31: Fix the parser", "meeseeks")
	f := &fakeForge{
		prs:   []forge.PullRequest{backport, pr(39, "Bump deps", "bob")},
		byNum: map[int]forge.PullRequest{31: pr(31, "Fix the parser", "alice")},
	}
	g := &Generator{VCS: fakeVCS{latest: "v1.0.0"}, Forge: f}
	req := EntryRequest{Repo: "baz/bar", Branch: "1.x", Version: "1.0.1"}

	plain, err := g.GetVersionEntry(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, plain, "Backport PR #31")

	req.ResolveBackports = true
	resolved, err := g.GetVersionEntry(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, resolved, "- Fix the parser [#31](https://github.com/baz/bar/pull/31) ([@alice]")
	assert.NotContains(t, resolved, "meeseeks")
	assert.Less(t, strings.Index(resolved, "#31"), strings.Index(resolved, "#39"))

	f.byNum = nil
	_, err = g.GetVersionEntry(context.Background(), req)
	require.Error(t, err)
	assert.True(t, relerrors.Is(err, relerrors.Network))
}

func TestResolveSince(t *testing.T) {
	t.Parallel()

	vcs := fakeVCS{latest: "v1.1.0a0", stable: "v1.0.0", root: "abc"}
	tests := map[string]struct {
		vcs  fakeVCS
		req  EntryRequest
		want string
	}{
		"explicit":    {vcs: vcs, req: EntryRequest{Since: "v0.9.0", SinceLastStable: true}, want: "v0.9.0"},
		"latest tag":  {vcs: vcs, want: "v1.1.0a0"},
		"last stable": {vcs: vcs, req: EntryRequest{SinceLastStable: true}, want: "v1.0.0"},
		"root commit": {vcs: fakeVCS{root: "abc"}, want: "abc"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			g := &Generator{VCS: tt.vcs}
			got, err := g.ResolveSince(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSince_Repository(t *testing.T) {
	t.Parallel()

	t.Run("tag on branch head", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewGitRepo(t)
		r.Commit("work", map[string]string{"a.txt": "a"})
		r.Tag("v1.0")
		r.Branch("baz/bar")
		r.Commit("main work", map[string]string{"b.txt": "b"})
		r.Tag("v2.0")

		repo, err := git.Open(r.Dir)
		require.NoError(t, err)
		g := &Generator{VCS: repo}

		got, err := g.ResolveSince(EntryRequest{Ref: "heads/baz/bar"})
		require.NoError(t, err)
		assert.Equal(t, "v1.0", got)

		got, err = g.ResolveSince(EntryRequest{})
		require.NoError(t, err)
		assert.Equal(t, "v2.0", got)
	})

	t.Run("stable and pre-release on one commit", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewGitRepo(t)
		r.Commit("release", map[string]string{"a.txt": "a"})
		r.Tag("v1.0.0")
		r.Tag("v1.1.0a0")

		repo, err := git.Open(r.Dir)
		require.NoError(t, err)
		g := &Generator{VCS: repo}

		got, err := g.ResolveSince(EntryRequest{SinceLastStable: true})
		require.NoError(t, err)
		assert.Equal(t, "v1.0.0", got)

		got, err = g.ResolveSince(EntryRequest{})
		require.NoError(t, err)
		assert.Equal(t, "v1.1.0a0", got)
	})

	t.Run("no tags uses root commit", func(t *testing.T) {
		t.Parallel()
		r := testutil.NewGitRepo(t)
		root := r.Head().Hash.String()
		r.Commit("second", map[string]string{"a.txt": "a"})

		repo, err := git.Open(r.Dir)
		require.NoError(t, err)
		g := &Generator{VCS: repo, Forge: &fakeForge{}}

		entry, err := g.GetVersionEntry(context.Background(), EntryRequest{Repo: "baz/bar", Branch: "main", Version: "0.0.1"})
		require.NoError(t, err)
		assert.Contains(t, entry, "compare/"+root+"...main")
		assert.NotContains(t, entry, "...None")
	})
}
