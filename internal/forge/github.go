// Package forge talks to the GitHub API: merged pull requests for changelog
// generation and draft releases. Failures are returned as network errors and
// never retried.
package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/rs/zerolog"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// User is a GitHub account.
type User struct {
	Login string
	URL   string
}

// PullRequest is a merged pull request.
type PullRequest struct {
	Number   int
	Title    string
	URL      string
	Author   User
	MergedAt time.Time
	Labels   []string
}

// Release is a GitHub release.
type Release struct {
	ID        int64
	Name      string
	TagName   string
	Body      string
	Draft     bool
	CreatedAt time.Time
	URL       string
}

// ActivityQuery selects merged pull requests.
type ActivityQuery struct {
	// Repo is "owner/name".
	Repo string
	// Branch is the base branch PRs were merged into; empty for any.
	Branch string
	// Since and Until are git refs (tags, branches or hashes) bounding the
	// range by commit date. Empty Until means the present.
	Since string
	Until string
	// Auth overrides the client token for this query.
	Auth string
}

// Option configures a GitHub client.
type Option func(*GitHub) error

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(base string) Option {
	return func(g *GitHub) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("parsing base URL %q: %w", base, err)
		}
		g.baseURL = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *GitHub) error {
		g.httpClient = c
		return nil
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(g *GitHub) error {
		g.log = l
		return nil
	}
}

// GitHub is the forge client.
type GitHub struct {
	token      string
	baseURL    *url.URL
	httpClient *http.Client
	log        zerolog.Logger
}

// NewGitHub returns a client authenticating with token (may be empty).
func NewGitHub(token string, opts ...Option) (*GitHub, error) {
	g := &GitHub{token: token, log: zerolog.Nop()}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *GitHub) client(auth string) *github.Client {
	c := github.NewClient(g.httpClient)
	if g.baseURL != nil {
		c.BaseURL = g.baseURL
	}
	token := g.token
	if auth != "" {
		token = auth
	}
	if token != "" {
		c = c.WithAuthToken(token)
	}
	return c
}

// SplitRepo splits "owner/name".
func SplitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", relerrors.NewArgumentError(
			fmt.Sprintf("invalid repository %q", repo),
			"Use the owner/name form, for example octo-org/octo-repo",
		)
	}
	return owner, name, nil
}

// ListMergedPRs returns pull requests merged into q.Branch after the commit
// q.Since and up to q.Until, newest merge first.
func (g *GitHub) ListMergedPRs(ctx context.Context, q ActivityQuery) ([]PullRequest, error) {
	owner, name, err := SplitRepo(q.Repo)
	if err != nil {
		return nil, err
	}
	c := g.client(q.Auth)

	since, err := g.refDate(ctx, c, owner, name, q.Since)
	if err != nil {
		return nil, err
	}
	var until time.Time
	if q.Until != "" {
		if until, err = g.refDate(ctx, c, owner, name, q.Until); err != nil {
			return nil, err
		}
	}

	query := searchQuery(q.Repo, q.Branch, since, until)
	g.log.Debug().Str("query", query).Msg("searching merged pull requests")

	var prs []PullRequest
	opts := &github.SearchOptions{Sort: "updated", Order: "desc", ListOptions: github.ListOptions{PerPage: 100}}
	for {
		res, resp, err := c.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, relerrors.NewNetworkError(err, "searching merged pull requests in "+q.Repo)
		}
		for _, issue := range res.Issues {
			pr := fromIssue(issue)
			if pr.MergedAt.IsZero() || !pr.MergedAt.After(since) {
				continue
			}
			if !until.IsZero() && pr.MergedAt.After(until) {
				continue
			}
			prs = append(prs, pr)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	sort.SliceStable(prs, func(i, j int) bool {
		return prs[i].MergedAt.After(prs[j].MergedAt)
	})
	g.log.Debug().Int("count", len(prs)).Msg("merged pull requests")
	return prs, nil
}

func searchQuery(repo, branch string, since, until time.Time) string {
	parts := []string{"repo:" + repo, "is:pr", "is:merged"}
	if branch != "" {
		parts = append(parts, "base:"+branch)
	}
	const layout = "2006-01-02T15:04:05Z"
	switch {
	case !since.IsZero() && !until.IsZero():
		parts = append(parts, "merged:"+since.UTC().Format(layout)+".."+until.UTC().Format(layout))
	case !since.IsZero():
		parts = append(parts, "merged:>="+since.UTC().Format(layout))
	}
	return strings.Join(parts, " ")
}

// refDate resolves a ref to its committer date; the zero time for "".
func (g *GitHub) refDate(ctx context.Context, c *github.Client, owner, name, ref string) (time.Time, error) {
	if ref == "" {
		return time.Time{}, nil
	}
	commit, _, err := c.Repositories.GetCommit(ctx, owner, name, ref, nil)
	if err != nil {
		return time.Time{}, relerrors.NewNetworkError(err, fmt.Sprintf("resolving %s in %s/%s", ref, owner, name))
	}
	date := commit.GetCommit().GetCommitter().GetDate().Time
	g.log.Debug().Str("ref", ref).Time("date", date).Msg("resolved ref date")
	return date, nil
}

func fromIssue(issue *github.Issue) PullRequest {
	pr := PullRequest{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
		Author: User{Login: issue.GetUser().GetLogin(), URL: issue.GetUser().GetHTMLURL()},
	}
	if links := issue.GetPullRequestLinks(); links != nil && links.MergedAt != nil {
		pr.MergedAt = links.GetMergedAt().Time
	} else {
		pr.MergedAt = issue.GetClosedAt().Time
	}
	for _, l := range issue.Labels {
		pr.Labels = append(pr.Labels, l.GetName())
	}
	return pr
}

// GetPR fetches one pull request.
func (g *GitHub) GetPR(ctx context.Context, repo string, number int, auth string) (PullRequest, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return PullRequest{}, err
	}
	pr, _, err := g.client(auth).PullRequests.Get(ctx, owner, name, number)
	if err != nil {
		return PullRequest{}, relerrors.NewNetworkError(err, fmt.Sprintf("fetching pull request #%d in %s", number, repo))
	}

	out := PullRequest{
		Number:   pr.GetNumber(),
		Title:    pr.GetTitle(),
		URL:      pr.GetHTMLURL(),
		Author:   User{Login: pr.GetUser().GetLogin(), URL: pr.GetUser().GetHTMLURL()},
		MergedAt: pr.GetMergedAt().Time,
	}
	for _, l := range pr.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	return out, nil
}

// LatestDraftRelease returns the most recently created draft release, or nil
// when the repository has none.
func (g *GitHub) LatestDraftRelease(ctx context.Context, repo, auth string) (*Release, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	c := g.client(auth)

	var latest *Release
	opts := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := c.Repositories.ListReleases(ctx, owner, name, opts)
		if err != nil {
			return nil, relerrors.NewNetworkError(err, "listing releases in "+repo)
		}
		for _, r := range releases {
			if !r.GetDraft() {
				continue
			}
			rel := Release{
				ID:        r.GetID(),
				Name:      r.GetName(),
				TagName:   r.GetTagName(),
				Body:      r.GetBody(),
				Draft:     true,
				CreatedAt: r.GetCreatedAt().Time,
				URL:       r.GetHTMLURL(),
			}
			if latest == nil || rel.CreatedAt.After(latest.CreatedAt) {
				latest = &rel
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return latest, nil
}
