package changelog

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// LineStyle defines the color and icon for one kind of entry line.
type LineStyle struct {
	Color *color.Color
	Icon  string
}

var lineStyles = map[string]LineStyle{
	"heading":     {Color: color.New(color.FgCyan, color.Bold)},
	"section":     {Color: color.New(color.Bold)},
	"pr":          {Color: color.New(color.FgGreen), Icon: "✓"},
	"link":        {Color: color.New(color.FgBlue)},
	"placeholder": {Color: color.New(color.FgYellow), Icon: "⚠"},
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Write the Markdown unchanged
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

var (
	sectionPattern = regexp.MustCompile(`^###\s+(.*)$`)
	prLinePattern  = regexp.MustCompile(`^- (.+?) \[#(\d+)\]\([^)]*\)(?: \(\[@([^\]]+)\]\([^)]*\)\))?\s*$`)
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// FormatTerminal writes a generated entry to w. Plain output is the Markdown
// itself; otherwise headings are colored, bullets condensed to
// "title (#N @login)" and wrapped to the terminal width.
func FormatTerminal(entry string, w io.Writer, opts FormatOptions) error {
	if opts.Plain {
		_, err := io.WriteString(w, entry)
		return err
	}

	width := resolveWidth(opts.MaxWidth)
	for _, line := range strings.Split(strings.TrimRight(entry, "\n"), "\n") {
		if err := writeLine(line, w, width); err != nil {
			return fmt.Errorf("formatting entry: %w", err)
		}
	}
	return nil
}

// writeLine styles a single Markdown line.
func writeLine(line string, w io.Writer, width int) error {
	switch {
	case line == EndMarker || line == Marker:
		return nil
	case headingPattern.MatchString(line):
		style := lineStyles["heading"]
		_, err := fmt.Fprintln(w, style.Color.Sprint(headingPattern.FindStringSubmatch(line)[1]))
		return err
	case sectionPattern.MatchString(line):
		style := lineStyles["section"]
		_, err := fmt.Fprintln(w, style.Color.Sprint(sectionPattern.FindStringSubmatch(line)[1]))
		return err
	case prLinePattern.MatchString(line):
		return writePR(prLinePattern.FindStringSubmatch(line), w, width)
	case line == emptyActivity:
		style := lineStyles["placeholder"]
		_, err := fmt.Fprintf(w, "  %s %s\n", style.Color.Sprint(style.Icon), line)
		return err
	}

	text := linkPattern.ReplaceAllStringFunc(line, func(m string) string {
		parts := linkPattern.FindStringSubmatch(m)
		return lineStyles["link"].Color.Sprint(parts[1])
	})
	_, err := fmt.Fprintln(w, text)
	return err
}

// writePR writes a condensed, wrapped pull request bullet.
func writePR(m []string, w io.Writer, width int) error {
	style := lineStyles["pr"]
	prefix := "  " + style.Icon + " "
	text := m[1] + " (#" + m[2]
	if m[3] != "" {
		text += " @" + m[3]
	}
	text += ")"

	wrapped := wrapText(text, width-len(prefix), "    ")
	_, err := fmt.Fprintf(w, "%s%s\n", style.Color.Sprint(prefix), wrapped)
	return err
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		// Find the last space within maxWidth
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}

// FormatPRSummary returns a brief one-line summary of a bullet, used in
// debug output.
func FormatPRSummary(line string, opts FormatOptions) string {
	m := prLinePattern.FindStringSubmatch(line)
	if m == nil {
		return truncateText(line, 60)
	}
	text := truncateText(m[1], 60)
	if opts.Plain {
		return fmt.Sprintf("[#%s] %s", m[2], text)
	}
	style := lineStyles["pr"]
	return fmt.Sprintf("%s #%s %s", style.Color.Sprint(style.Icon), m[2], text)
}

// truncateText truncates text to maxLen, adding ellipsis if needed.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
