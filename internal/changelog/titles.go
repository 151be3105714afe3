package changelog

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "* Fix the thing by @someone in https://github.com/o/r/pull/21"
	releaseLinePattern = regexp.MustCompile(`^\s*[*-]\s+(.+?)\s+by\s+@\S+\s+in\s+\S+/pull/(\d+)\s*$`)
	bulletPattern      = regexp.MustCompile(`^- (.+?) (\[#(\d+)\]\(.*)$`)
)

const whatsChanged = "## What's Changed"

// ApplyReleaseTitles rewrites entry's bullet titles with those of a
// GitHub-generated release body, matched by PR number. Any text the body
// carries above "## What's Changed" is placed under the entry heading.
func ApplyReleaseTitles(entry, releaseBody string) string {
	titles := make(map[int]string)
	for _, line := range strings.Split(releaseBody, "\n") {
		m := releaseLinePattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil {
			titles[n] = m[1]
		}
	}

	lines := strings.Split(entry, "\n")
	for i, line := range lines {
		m := bulletPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[3])
		if title, ok := titles[n]; ok {
			lines[i] = "- " + title + " " + m[2]
		}
	}

	preamble := releasePreamble(releaseBody)
	if preamble == "" {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if headingPattern.MatchString(line) {
			head := append([]string{}, lines[:i+1]...)
			head = append(head, "", preamble)
			return strings.Join(append(head, lines[i+1:]...), "\n")
		}
	}
	return preamble + "\n\n" + strings.Join(lines, "\n")
}

// releasePreamble is the trimmed text above "## What's Changed", or "" when
// the body has no such heading.
func releasePreamble(body string) string {
	idx := strings.Index(body, whatsChanged)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(body[:idx])
}
