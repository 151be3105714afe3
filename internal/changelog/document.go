package changelog

import (
	"regexp"
	"strings"
)

// Marker is the comment after which new entries are inserted.
const Marker = "<!-- <START NEW CHANGELOG ENTRY> -->"

// EndMarker closes a generated entry. Parsing carries it through untouched.
const EndMarker = "<!-- <END NEW CHANGELOG ENTRY> -->"

// Block is one "## " section of a changelog. Text holds the heading line and
// everything up to the next block, verbatim.
type Block struct {
	Heading string
	Version string
	Text    string
}

// Document is a Markdown changelog split into a preamble and version blocks.
// Blocks are parsed on first use.
type Document struct {
	text     string
	parsed   bool
	preamble string
	blocks   []Block
}

var (
	headingPattern        = regexp.MustCompile(`^##\s+(.*?)\s*$`)
	headingVersionPattern = regexp.MustCompile(`^\[?v?([0-9][^\s\]\)]*)`)
)

// ParseDocument wraps changelog text. Parsing is deferred until Blocks,
// Insert or Find needs it.
func ParseDocument(text string) *Document {
	return &Document{text: text}
}

func (d *Document) parse() {
	if d.parsed {
		return
	}
	d.parsed = true

	lines := strings.SplitAfter(d.text, "\n")
	start := 0
	for i, line := range lines {
		if strings.Contains(line, Marker) {
			start = i + 1
			break
		}
	}

	var pre strings.Builder
	for _, line := range lines[:start] {
		pre.WriteString(line)
	}

	var cur *Block
	var body strings.Builder
	flush := func() {
		if cur != nil {
			cur.Text = body.String()
			d.blocks = append(d.blocks, *cur)
			body.Reset()
		}
	}
	for _, line := range lines[start:] {
		if m := headingPattern.FindStringSubmatch(strings.TrimRight(line, "\r\n")); m != nil {
			// Sections such as "About" or "Unreleased" above the first
			// version stay in the preamble so new entries land below them.
			if v := headingVersion(m[1]); v != "" || cur != nil {
				flush()
				cur = &Block{Heading: m[1], Version: v}
			}
		}
		if cur == nil {
			pre.WriteString(line)
			continue
		}
		body.WriteString(line)
	}
	flush()
	d.preamble = pre.String()
}

// headingVersion extracts "1.2.0" from headings such as "1.2.0",
// "v1.2.0 - 2024-01-01" or "[1.2.0](https://...)". Non-version headings
// like "Unreleased" yield "".
func headingVersion(heading string) string {
	m := headingVersionPattern.FindStringSubmatch(heading)
	if m == nil {
		return ""
	}
	return m[1]
}

// Preamble is everything above the first versioned block, marker and any
// leading non-version sections included.
func (d *Document) Preamble() string {
	d.parse()
	return d.preamble
}

// Blocks returns a copy of the document's version blocks, topmost first.
func (d *Document) Blocks() []Block {
	d.parse()
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Find returns the block for version, matching with or without a "v" prefix.
func (d *Document) Find(version string) (Block, bool) {
	want := strings.TrimPrefix(version, "v")
	for _, b := range d.Blocks() {
		if b.Version != "" && b.Version == want {
			return b, true
		}
	}
	return Block{}, false
}

// Insert adds entry as the new topmost block. The preamble is not modified;
// at most a line break is added after it so the entry starts on its own line.
func (d *Document) Insert(entry string) {
	d.parse()

	text := strings.TrimSpace(entry) + "\n"
	if len(d.blocks) > 0 {
		text += "\n"
	}
	heading := ""
	if m := headingPattern.FindStringSubmatch(firstLine(text)); m != nil {
		heading = m[1]
	}

	if d.preamble != "" && !strings.HasSuffix(d.preamble, "\n") {
		text = "\n" + text
	}
	if len(d.blocks) == 0 && d.preamble != "" && !strings.HasSuffix(d.preamble, "\n\n") {
		text = "\n" + text
	}

	d.blocks = append([]Block{{Heading: heading, Version: headingVersion(heading), Text: text}}, d.blocks...)
}

// Replace swaps the text of version's block for text and reports whether
// such a block exists.
func (d *Document) Replace(version, text string) bool {
	d.parse()
	want := strings.TrimPrefix(version, "v")
	for i, b := range d.blocks {
		if b.Version == "" || b.Version != want {
			continue
		}
		d.blocks[i].Text = text
		if m := headingPattern.FindStringSubmatch(firstLine(text)); m != nil {
			d.blocks[i].Heading = m[1]
		}
		return true
	}
	return false
}

// String renders the document. An unmodified document renders to exactly
// the text it was parsed from.
func (d *Document) String() string {
	if !d.parsed {
		return d.text
	}
	var b strings.Builder
	b.WriteString(d.preamble)
	for _, blk := range d.blocks {
		b.WriteString(blk.Text)
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
