// Package output provides terminal output formatting for relcut results.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format selects how structured results are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected text, json or yaml)", s)
	}
}

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintHeader prints a bold cyan section title followed by a rule.
func PrintHeader(out io.Writer, title string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	rule := strings.Repeat("─", min(len(title), GetTerminalWidth()))
	fmt.Fprintf(out, "%s\n%s\n", cyan(title), cyan(rule))
}

// PrintSuccess prints a green checkmark and message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), message)
}

// PrintWarning prints a yellow warning line.
func PrintWarning(out io.Writer, message string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("⚠"), message)
}

// PrintMap prints m sorted by key. Text output is "key: value" lines; json
// and yaml encode the map itself.
func PrintMap(out io.Writer, m map[string]string, format Format) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Encode(out, m, format)
	default:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, err := fmt.Fprintf(out, "%s: %s\n", k, m[k]); err != nil {
				return err
			}
		}
		return nil
	}
}

// Encode writes v as indented JSON, or as YAML for any other format.
func Encode(out io.Writer, v any, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// PrintHashes prints artifact digests under a "SHA256 hashes" header in
// text mode and as a bare map otherwise.
func PrintHashes(out io.Writer, hashes map[string]string, format Format) error {
	if format == FormatText || format == "" {
		PrintHeader(out, "SHA256 hashes")
		if len(hashes) == 0 {
			fmt.Fprintln(out, "(none)")
			return nil
		}
	}
	return PrintMap(out, hashes, format)
}
