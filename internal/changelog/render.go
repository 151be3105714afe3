package changelog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ariel-frischer/relcut/internal/forge"
)

// emptyActivity is the body of an entry with no merged pull requests.
const emptyActivity = "No merged pull requests."

// FormatPREntry renders one pull request as a Markdown bullet:
// "- <title> [#N](url) ([@login](profile))".
func FormatPREntry(pr forge.PullRequest) string {
	line := fmt.Sprintf("- %s [#%d](%s)", strings.TrimSpace(pr.Title), pr.Number, pr.URL)
	if pr.Author.Login != "" {
		line += fmt.Sprintf(" ([@%s](%s))", pr.Author.Login, profileURL(pr.Author))
	}
	return line
}

func profileURL(u forge.User) string {
	if u.URL != "" {
		return u.URL
	}
	return "https://github.com/" + u.Login
}

// CompareURL links the diff between since and head in repo. It returns ""
// when any of them is unknown.
func CompareURL(repo, since, head string) string {
	if repo == "" || since == "" || head == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/compare/%s...%s", repo, since, head)
}

// entryData is everything renderEntry lays out.
type entryData struct {
	Version string
	Repo    string
	Since   string
	Until   string
	Branch  string
	PRs     []forge.PullRequest
}

// renderEntry lays out a changelog entry for d.Version.
func renderEntry(d entryData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", d.Version)

	head := d.Until
	if head == "" {
		head = d.Branch
	}
	if link := CompareURL(d.Repo, d.Since, head); link != "" {
		fmt.Fprintf(&b, "([Full Changelog](%s))\n\n", link)
	}

	if len(d.PRs) == 0 {
		b.WriteString(emptyActivity + "\n\n")
		b.WriteString(EndMarker + "\n")
		return b.String()
	}

	b.WriteString("### Merged PRs\n\n")
	for _, pr := range d.PRs {
		b.WriteString(FormatPREntry(pr) + "\n")
	}

	if people := contributors(d.PRs); len(people) > 0 {
		b.WriteString("\n### Contributors to this release\n\n")
		links := make([]string, len(people))
		for i, u := range people {
			links[i] = fmt.Sprintf("[@%s](%s)", u.Login, profileURL(u))
		}
		b.WriteString(strings.Join(links, " | ") + "\n")
	}

	b.WriteString("\n" + EndMarker + "\n")
	return b.String()
}

// contributors returns PR authors, deduplicated and sorted case-insensitively.
func contributors(prs []forge.PullRequest) []forge.User {
	seen := make(map[string]bool)
	var out []forge.User
	for _, pr := range prs {
		login := pr.Author.Login
		if login == "" || seen[strings.ToLower(login)] {
			continue
		}
		seen[strings.ToLower(login)] = true
		out = append(out, pr.Author)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Login) < strings.ToLower(out[j].Login)
	})
	return out
}
