package version

import "strings"

// Compare returns -1, 0 or 1 as a sorts before, equal to, or after b.
//
// For PEP 440 versions, within one release triple the order is dev-only <
// pre-releases < final, and a pre-release with a dev counter sorts before the
// same pre-release without one.
//
// When both versions use the SemVer scheme, SemVer 2.0 precedence applies via
// Masterminds semver: pre-release identifiers compare lexically, so
// "1.0.0-dev.0" sorts after "1.0.0-alpha.0" just as npm orders them.
func Compare(a, b Version) int {
	if a.Scheme == SemVer && b.Scheme == SemVer {
		return a.semver().Compare(b.semver())
	}

	if c := compareUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareUint(a.Patch, b.Patch); c != 0 {
		return c
	}

	if c := compareInt(phase(a), phase(b)); c != 0 {
		return c
	}

	if a.Pre != "" {
		if c := compareInt(labelRank(a.Pre), labelRank(b.Pre)); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.Pre), strings.ToLower(b.Pre)); c != 0 && labelRank(a.Pre) == otherRank {
			return c
		}
		if c := compareUint(a.PreNum, b.PreNum); c != 0 {
			return c
		}
	}

	switch {
	case a.HasDev && b.HasDev:
		return compareUint(a.Dev, b.Dev)
	case a.HasDev:
		return -1
	case b.HasDev:
		return 1
	}
	return 0
}

// GreaterThan reports whether a sorts strictly after b.
func GreaterThan(a, b Version) bool {
	return Compare(a, b) > 0
}

// phase orders the suffix families of one release triple.
func phase(v Version) int {
	switch {
	case v.Pre == "" && v.HasDev:
		return 0
	case v.Pre != "":
		return 1
	default:
		return 2
	}
}

const otherRank = 1

func labelRank(label string) int {
	switch strings.ToLower(label) {
	case "a", "alpha":
		return 0
	case "b", "beta":
		return 2
	case "rc", "c", "pre", "preview":
		return 3
	default:
		return otherRank
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
