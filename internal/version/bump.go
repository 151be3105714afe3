package version

import (
	"strings"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// Bump keywords accepted in a version spec.
const (
	KeywordPatch = "patch"
	KeywordMinor = "minor"
	KeywordMajor = "major"
	KeywordNext  = "next"
	KeywordDev   = "dev"
)

// IsKeyword reports whether spec is a symbolic bump keyword.
func IsKeyword(spec string) bool {
	switch spec {
	case KeywordPatch, KeywordMinor, KeywordMajor, KeywordNext, KeywordDev:
		return true
	}
	return false
}

// BumpOptions tunes how a spec is resolved.
type BumpOptions struct {
	// ChangelogVersion is the version declared by the topmost changelog entry.
	// When set and the current version is a dev release, it replaces the
	// current version as the resolution base for every keyword except "dev".
	ChangelogVersion string
}

// BumpResult describes a resolved spec.
type BumpResult struct {
	// Version is the text to write into manifests.
	Version string
	// Base is the version the spec was resolved against.
	Base string
}

// Bump resolves spec against current and returns the next version.
//
// Keyword specs always produce a version strictly greater than the base.
// Explicit specs are used verbatim (minus a leading "v") once they parse and
// sort strictly after current.
func Bump(current, spec string, opts BumpOptions) (BumpResult, error) {
	spec = strings.TrimSpace(spec)
	cur, err := Parse(current)
	if err != nil {
		return BumpResult{}, relerrors.InvalidVersionSpec(current, err)
	}

	if !IsKeyword(spec) {
		next, err := Parse(spec)
		if err != nil {
			return BumpResult{}, relerrors.InvalidVersionSpec(spec, err)
		}
		if !GreaterThan(next, cur) {
			return BumpResult{}, relerrors.VersionNotGreater(spec, current)
		}
		return BumpResult{Version: strings.TrimPrefix(spec, "v"), Base: current}, nil
	}

	base := cur
	if cur.IsDevRelease() && spec != KeywordDev && opts.ChangelogVersion != "" {
		if cv, err := Parse(opts.ChangelogVersion); err == nil {
			base = cv
		}
	}

	next := apply(base, spec)
	if !GreaterThan(next, base) {
		return BumpResult{}, relerrors.VersionNotGreater(next.String(), base.String())
	}
	return BumpResult{Version: next.String(), Base: base.String()}, nil
}

func apply(v Version, keyword string) Version {
	devOnly := v.HasDev && v.Pre == ""
	out := v.Release()

	switch keyword {
	case KeywordDev:
		if v.HasDev {
			out = v
			out.Dev = v.Dev + 1
			return out
		}
		out.Minor++
		out.Patch = 0
		out.HasDev = true
		out.Dev = 0

	case KeywordNext:
		switch {
		case v.HasDev:
			out = v
			out.Dev = v.Dev + 1
		case v.Pre != "":
			out = v
			out.PreNum = v.PreNum + 1
		default:
			out.Patch++
		}

	case KeywordPatch:
		if !devOnly {
			out.Patch++
		}

	case KeywordMinor:
		if !devOnly || v.Patch != 0 {
			out.Minor++
			out.Patch = 0
		}

	case KeywordMajor:
		if !devOnly || v.Minor != 0 || v.Patch != 0 {
			out.Major++
			out.Minor = 0
			out.Patch = 0
		}
	}
	return out
}
