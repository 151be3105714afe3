package changelog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ariel-frischer/relcut/internal/forge"
)

// VCS is the version-control surface the generator needs.
type VCS interface {
	LatestTag(ref string, stableOnly bool) (string, error)
	RootCommit(ref string) (string, error)
}

// Forge lists pull request activity.
type Forge interface {
	ListMergedPRs(ctx context.Context, q forge.ActivityQuery) ([]forge.PullRequest, error)
	GetPR(ctx context.Context, repo string, number int, auth string) (forge.PullRequest, error)
}

// Generator builds changelog entries from merged pull requests.
type Generator struct {
	VCS   VCS
	Forge Forge
	Log   zerolog.Logger
}

// EntryRequest describes the entry to generate.
type EntryRequest struct {
	// Ref is the local ref whose history bounds the range start; empty means HEAD.
	Ref string
	// Branch is the base branch PRs were merged into.
	Branch string
	// Repo is "owner/name".
	Repo    string
	Version string
	// Since overrides the range start.
	Since string
	// Until bounds the range end; empty means the present.
	Until string
	// SinceLastStable skips pre-release tags when locating the range start.
	SinceLastStable  bool
	ResolveBackports bool
	Auth             string
}

var backportPattern = regexp.MustCompile(`(?i)^\s*backport\s+PR\s+#(\d+)`)

// GetVersionEntry generates the Markdown entry for req.Version.
func (g *Generator) GetVersionEntry(ctx context.Context, req EntryRequest) (string, error) {
	since, err := g.ResolveSince(req)
	if err != nil {
		return "", err
	}
	g.Log.Debug().Str("repo", req.Repo).Str("branch", req.Branch).Str("since", since).Msg("listing merged pull requests")

	prs, err := g.Forge.ListMergedPRs(ctx, forge.ActivityQuery{
		Repo:   req.Repo,
		Branch: req.Branch,
		Since:  since,
		Until:  req.Until,
		Auth:   req.Auth,
	})
	if err != nil {
		return "", err
	}

	if req.ResolveBackports {
		if prs, err = g.resolveBackports(ctx, req, prs); err != nil {
			return "", err
		}
	}

	for _, pr := range prs {
		g.Log.Debug().Msg(FormatPRSummary(FormatPREntry(pr), FormatOptions{Plain: true}))
	}

	return renderEntry(entryData{
		Version: req.Version,
		Repo:    req.Repo,
		Since:   since,
		Until:   req.Until,
		Branch:  req.Branch,
		PRs:     prs,
	}), nil
}

// ResolveSince picks the range start: the explicit Since, else the latest
// (stable, when requested) tag reachable from Ref, else Ref's root commit.
func (g *Generator) ResolveSince(req EntryRequest) (string, error) {
	if req.Since != "" {
		return req.Since, nil
	}
	tag, err := g.VCS.LatestTag(req.Ref, req.SinceLastStable)
	if err != nil {
		return "", fmt.Errorf("finding latest tag: %w", err)
	}
	if tag != "" {
		return tag, nil
	}
	root, err := g.VCS.RootCommit(req.Ref)
	if err != nil {
		return "", fmt.Errorf("finding root commit: %w", err)
	}
	g.Log.Debug().Str("root", root).Msg("no tags found, starting from root commit")
	return root, nil
}

// resolveBackports swaps backport PRs for the PR they carry, keeping the
// backport's merge time so ordering is unchanged.
func (g *Generator) resolveBackports(ctx context.Context, req EntryRequest, prs []forge.PullRequest) ([]forge.PullRequest, error) {
	out := make([]forge.PullRequest, len(prs))
	for i, pr := range prs {
		out[i] = pr
		m := backportPattern.FindStringSubmatch(pr.Title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		orig, err := g.Forge.GetPR(ctx, req.Repo, n, req.Auth)
		if err != nil {
			return nil, err
		}
		g.Log.Debug().Int("backport", pr.Number).Int("original", n).Msg("resolved backport")
		orig.MergedAt = pr.MergedAt
		out[i] = orig
	}
	return out, nil
}
