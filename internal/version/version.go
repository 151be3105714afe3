// Package version models release versions for Python and npm projects.
//
// Two spellings are understood: PEP 440 style ("1.0.3a4", "0.1.0.dev0") used by
// Python manifests, and SemVer style ("1.0.3-alpha.4") used by package.json.
// Both parse into the same Version value so bump rules are shared; the Scheme
// only decides how a Version is rendered and compared.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Scheme selects the textual form of a Version.
type Scheme int

const (
	// PEP440 renders "1.2.3a1" and "1.2.3.dev0".
	PEP440 Scheme = iota
	// SemVer renders "1.2.3-alpha.1" and "1.2.3-dev.0".
	SemVer
)

// Version is a parsed release version.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64

	// Pre is the pre-release label ("a", "b", "rc", or a SemVer identifier
	// such as "alpha"); empty for final releases.
	Pre    string
	PreNum uint64

	// HasDev marks a development release; Dev is its counter.
	HasDev bool
	Dev    uint64

	Scheme Scheme
}

var pep440Pattern = regexp.MustCompile(`(?i)^(\d+)(?:\.(\d+))?(?:\.(\d+))?` +
	`(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d+)?)?` +
	`(?:[-_.]?(dev)[-_.]?(\d+)?)?$`)

var semverPrePattern = regexp.MustCompile(`^([0-9A-Za-z-]*?)\.?(\d+)?$`)

// Parse parses a version string. A leading "v" is ignored.
// Strings with a hyphenated pre-release are read as SemVer, everything else as PEP 440.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "v"), "V")
	if raw == "" {
		return Version{}, fmt.Errorf("empty version")
	}

	if strings.Contains(raw, "-") || strings.Contains(raw, "+") {
		if v, err := parseSemVer(raw); err == nil {
			return v, nil
		}
	}

	m := pep440Pattern.FindStringSubmatch(raw)
	if m == nil {
		return Version{}, fmt.Errorf("%q is not a valid version", s)
	}

	v := Version{Scheme: PEP440}
	v.Major = mustUint(m[1])
	v.Minor = mustUint(m[2])
	v.Patch = mustUint(m[3])
	if m[4] != "" {
		v.Pre = normalizePEP440Label(m[4])
		v.PreNum = mustUint(m[5])
	}
	if m[6] != "" {
		v.HasDev = true
		v.Dev = mustUint(m[7])
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseSemVer(raw string) (Version, error) {
	sv, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, err
	}

	v := Version{
		Major:  sv.Major(),
		Minor:  sv.Minor(),
		Patch:  sv.Patch(),
		Scheme: SemVer,
	}

	pre := sv.Prerelease()
	if pre == "" {
		return v, nil
	}

	// "dev.N" and "<label>.N.dev.M" carry a development counter.
	if idx := strings.Index(pre, "dev"); idx >= 0 && (idx == 0 || pre[idx-1] == '.') {
		v.HasDev = true
		v.Dev = mustUint(strings.TrimPrefix(strings.TrimPrefix(pre[idx:], "dev"), "."))
		pre = strings.TrimSuffix(pre[:idx], ".")
	}
	if pre == "" {
		return v, nil
	}

	m := semverPrePattern.FindStringSubmatch(pre)
	if m == nil || m[1] == "" {
		return Version{}, fmt.Errorf("unsupported pre-release %q", pre)
	}
	v.Pre = m[1]
	v.PreNum = mustUint(m[2])
	return v, nil
}

func normalizePEP440Label(label string) string {
	switch strings.ToLower(label) {
	case "a", "alpha":
		return "a"
	case "b", "beta":
		return "b"
	default:
		return "rc"
	}
}

func mustUint(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// String renders the version in its scheme.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)

	if v.Scheme == SemVer {
		var ids []string
		if v.Pre != "" {
			ids = append(ids, v.Pre, strconv.FormatUint(v.PreNum, 10))
		}
		if v.HasDev {
			ids = append(ids, "dev", strconv.FormatUint(v.Dev, 10))
		}
		if len(ids) > 0 {
			b.WriteString("-" + strings.Join(ids, "."))
		}
		return b.String()
	}

	if v.Pre != "" {
		fmt.Fprintf(&b, "%s%d", v.Pre, v.PreNum)
	}
	if v.HasDev {
		fmt.Fprintf(&b, ".dev%d", v.Dev)
	}
	return b.String()
}

// IsPrerelease reports whether the version carries a pre-release or dev suffix.
func (v Version) IsPrerelease() bool {
	return v.Pre != "" || v.HasDev
}

// IsDevRelease reports whether the version carries a development counter.
func (v Version) IsDevRelease() bool {
	return v.HasDev
}

// Release returns the version with every suffix removed.
func (v Version) Release() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, Scheme: v.Scheme}
}

// ToSemVer converts the version to SemVer spelling, expanding PEP 440 labels
// ("a" -> "alpha", "b" -> "beta").
func (v Version) ToSemVer() Version {
	if v.Scheme == SemVer {
		return v
	}
	out := v
	out.Scheme = SemVer
	switch v.Pre {
	case "a":
		out.Pre = "alpha"
	case "b":
		out.Pre = "beta"
	}
	return out
}

// semver returns the Masterminds representation of a SemVer-scheme version.
func (v Version) semver() *semver.Version {
	var ids []string
	if v.Pre != "" {
		ids = append(ids, v.Pre, strconv.FormatUint(v.PreNum, 10))
	}
	if v.HasDev {
		ids = append(ids, "dev", strconv.FormatUint(v.Dev, 10))
	}
	return semver.New(v.Major, v.Minor, v.Patch, strings.Join(ids, "."), "")
}
