// Package changelog generates release entries from merged pull requests and
// splices them into a Markdown changelog.
//
// A changelog is read as a preamble followed by level-two heading blocks
// ("## <version>"). New entries are inserted as whole blocks, after the
// "<!-- <START NEW CHANGELOG ENTRY> -->" marker when present, otherwise before
// the first existing block. The preamble is never rewritten.
//
// Splicing is not idempotent: inserting an entry for a version that is
// already present yields a second heading. Callers check first with
// CheckEntry when that matters.
package changelog
