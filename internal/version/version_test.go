package version

import (
	"testing"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    Version
		wantStr string
		wantErr bool
	}{
		"final release": {
			input:   "1.2.3",
			want:    Version{Major: 1, Minor: 2, Patch: 3},
			wantStr: "1.2.3",
		},
		"v prefix": {
			input:   "v0.0.1",
			want:    Version{Patch: 1},
			wantStr: "0.0.1",
		},
		"two components": {
			input:   "v1.0",
			want:    Version{Major: 1},
			wantStr: "1.0.0",
		},
		"pep440 alpha": {
			input:   "0.0.2a0",
			want:    Version{Patch: 2, Pre: "a"},
			wantStr: "0.0.2a0",
		},
		"pep440 rc": {
			input:   "1.0.0rc3",
			want:    Version{Major: 1, Pre: "rc", PreNum: 3},
			wantStr: "1.0.0rc3",
		},
		"pep440 dev": {
			input:   "0.1.0.dev1",
			want:    Version{Minor: 1, HasDev: true, Dev: 1},
			wantStr: "0.1.0.dev1",
		},
		"pep440 spelled out label": {
			input:   "2.0.0beta2",
			want:    Version{Major: 2, Pre: "b", PreNum: 2},
			wantStr: "2.0.0b2",
		},
		"semver prerelease": {
			input:   "1.0.0-alpha.4",
			want:    Version{Major: 1, Pre: "alpha", PreNum: 4, Scheme: SemVer},
			wantStr: "1.0.0-alpha.4",
		},
		"semver dev": {
			input:   "0.3.0-dev.2",
			want:    Version{Minor: 3, HasDev: true, Dev: 2, Scheme: SemVer},
			wantStr: "0.3.0-dev.2",
		},
		"empty": {
			input:   "",
			wantErr: true,
		},
		"garbage": {
			input:   "not-a-version",
			wantErr: true,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	ordered := []string{
		"0.0.1",
		"0.1.0.dev0",
		"0.1.0.dev1",
		"0.1.0a0",
		"0.1.0a1",
		"0.1.0b0",
		"0.1.0rc0",
		"0.1.0",
		"0.1.1",
		"1.0.0",
	}

	for i := 0; i < len(ordered)-1; i++ {
		lo := MustParse(ordered[i])
		hi := MustParse(ordered[i+1])
		assert.Equal(t, -1, Compare(lo, hi), "%s < %s", ordered[i], ordered[i+1])
		assert.Equal(t, 1, Compare(hi, lo), "%s > %s", ordered[i+1], ordered[i])
		assert.Equal(t, 0, Compare(lo, lo))
	}
}

func TestCompare_SemVer(t *testing.T) {
	t.Parallel()

	assert.True(t, GreaterThan(MustParse("1.0.0"), MustParse("1.0.0-alpha.1")))
	assert.True(t, GreaterThan(MustParse("1.0.0-beta.0"), MustParse("1.0.0-alpha.9")))
	assert.True(t, GreaterThan(MustParse("1.0.1-alpha.0"), MustParse("1.0.0")))
}

func TestCompare_DevOrderingByScheme(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		a, b string
		want int
	}{
		"semver dev after alpha":     {a: "1.0.0-dev.0", b: "1.0.0-alpha.0", want: 1},
		"semver dev before final":    {a: "1.0.0-dev.0", b: "1.0.0", want: -1},
		"semver dev before rc":       {a: "1.0.0-dev.0", b: "1.0.0-rc.0", want: -1},
		"pep440 dev before alpha":    {a: "1.0.0.dev0", b: "1.0.0a0", want: -1},
		"pep440 dev pre before pre":  {a: "1.0.0a0.dev1", b: "1.0.0a0", want: -1},
		"pep440 dev before final":    {a: "1.0.0.dev3", b: "1.0.0", want: -1},
		"semver numeric identifiers": {a: "1.0.0-alpha.10", b: "1.0.0-alpha.9", want: 1},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Compare(MustParse(tt.a), MustParse(tt.b)))
			assert.Equal(t, -tt.want, Compare(MustParse(tt.b), MustParse(tt.a)))
		})
	}
}

func TestIsPrerelease(t *testing.T) {
	t.Parallel()

	assert.False(t, MustParse("1.0.0").IsPrerelease())
	assert.True(t, MustParse("1.1.0a0").IsPrerelease())
	assert.True(t, MustParse("1.1.0.dev0").IsPrerelease())
	assert.True(t, MustParse("1.1.0.dev0").IsDevRelease())
	assert.False(t, MustParse("1.1.0a0").IsDevRelease())
}

func TestToSemVer(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"0.0.2a0":    "0.0.2-alpha.0",
		"1.0.0b3":    "1.0.0-beta.3",
		"1.0.0rc1":   "1.0.0-rc.1",
		"0.1.0.dev2": "0.1.0-dev.2",
		"2.0.0":      "2.0.0",
	}
	for in, want := range tests {
		assert.Equal(t, want, MustParse(in).ToSemVer().String(), in)
	}
}

func TestBump_Keywords(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		current string
		spec    string
		want    string
	}{
		"patch final":          {current: "1.0.3", spec: "patch", want: "1.0.4"},
		"patch prerelease":     {current: "1.0.3a4", spec: "patch", want: "1.0.4"},
		"minor":                {current: "1.0.3a6", spec: "minor", want: "1.1.0"},
		"major":                {current: "1.4.2", spec: "major", want: "2.0.0"},
		"next final":           {current: "1.0.2", spec: "next", want: "1.0.3"},
		"next prerelease":      {current: "1.0.3a5", spec: "next", want: "1.0.3a6"},
		"next dev":             {current: "0.1.0.dev0", spec: "next", want: "0.1.0.dev1"},
		"dev from final":       {current: "0.0.1", spec: "dev", want: "0.1.0.dev0"},
		"dev increments":       {current: "0.1.0.dev0", spec: "dev", want: "0.1.0.dev1"},
		"minor finalizes dev":  {current: "1.0.0.dev0", spec: "minor", want: "1.0.0"},
		"patch finalizes dev":  {current: "0.1.0.dev3", spec: "patch", want: "0.1.0"},
		"major finalizes dev":  {current: "2.0.0.dev1", spec: "major", want: "2.0.0"},
		"minor on dev patch":   {current: "1.0.1.dev0", spec: "minor", want: "1.1.0"},
		"semver next":          {current: "1.0.0-alpha.0", spec: "next", want: "1.0.0-alpha.1"},
		"semver patch":         {current: "1.0.0", spec: "patch", want: "1.0.1"},
		"explicit":             {current: "0.0.1", spec: "0.0.2a0", want: "0.0.2a0"},
		"explicit with prefix": {current: "0.0.1", spec: "v1.0.0", want: "1.0.0"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Bump(tt.current, tt.spec, BumpOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Version)
		})
	}
}

func TestBump_KeywordsAlwaysIncrease(t *testing.T) {
	t.Parallel()

	currents := []string{"0.0.1", "1.2.3", "1.0.3a4", "2.0.0rc1", "0.1.0.dev4", "1.0.0-beta.2", "3.1.0"}
	for _, current := range currents {
		for _, kw := range []string{KeywordPatch, KeywordMinor, KeywordMajor, KeywordNext, KeywordDev} {
			got, err := Bump(current, kw, BumpOptions{})
			require.NoError(t, err, "%s %s", current, kw)
			assert.True(t, GreaterThan(MustParse(got.Version), MustParse(current)),
				"%s -%s-> %s should increase", current, kw, got.Version)
		}
	}
}

func TestBump_ReleaseKeywordsDropSuffix(t *testing.T) {
	t.Parallel()

	for _, current := range []string{"1.2.3", "1.2.3a1", "1.2.3rc2", "1.2.3-beta.1"} {
		patch, err := Bump(current, KeywordPatch, BumpOptions{})
		require.NoError(t, err)
		minor, err := Bump(current, KeywordMinor, BumpOptions{})
		require.NoError(t, err)
		major, err := Bump(current, KeywordMajor, BumpOptions{})
		require.NoError(t, err)

		assert.Equal(t, "1.2.4", MustParse(patch.Version).Release().ToSemVer().String())
		assert.False(t, MustParse(patch.Version).IsPrerelease())
		assert.Equal(t, "1.3.0", MustParse(minor.Version).Release().ToSemVer().String())
		assert.False(t, MustParse(minor.Version).IsPrerelease())
		assert.Equal(t, "2.0.0", MustParse(major.Version).Release().ToSemVer().String())
		assert.False(t, MustParse(major.Version).IsPrerelease())
	}
}

func TestBump_DevTwiceSameBase(t *testing.T) {
	t.Parallel()

	first, err := Bump("0.0.1", KeywordDev, BumpOptions{})
	require.NoError(t, err)
	second, err := Bump(first.Version, KeywordDev, BumpOptions{})
	require.NoError(t, err)

	assert.Equal(t, "0.1.0.dev0", first.Version)
	assert.Equal(t, "0.1.0.dev1", second.Version)
	assert.Equal(t, MustParse(first.Version).Release(), MustParse(second.Version).Release())
}

func TestBump_ChangelogVersionPreferred(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		current   string
		spec      string
		changelog string
		want      string
		wantBase  string
	}{
		"next from changelog": {
			current: "0.1.0.dev1", spec: "next", changelog: "0.0.1",
			want: "0.0.2", wantBase: "0.0.1",
		},
		"patch from changelog": {
			current: "0.1.0.dev0", spec: "patch", changelog: "0.0.1",
			want: "0.0.2", wantBase: "0.0.1",
		},
		"dev ignores changelog": {
			current: "0.1.0.dev0", spec: "dev", changelog: "0.0.1",
			want: "0.1.0.dev1", wantBase: "0.1.0.dev0",
		},
		"final ignores changelog": {
			current: "1.0.2", spec: "next", changelog: "0.0.1",
			want: "1.0.3", wantBase: "1.0.2",
		},
		"unparseable changelog version ignored": {
			current: "0.1.0.dev0", spec: "next", changelog: "Unreleased",
			want: "0.1.0.dev1", wantBase: "0.1.0.dev0",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Bump(tt.current, tt.spec, BumpOptions{ChangelogVersion: tt.changelog})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Version)
			assert.Equal(t, tt.wantBase, got.Base)
		})
	}
}

func TestBump_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		current string
		spec    string
	}{
		"unparseable spec":    {current: "1.0.0", spec: "bogus"},
		"explicit equal":      {current: "1.0.0", spec: "1.0.0"},
		"explicit lower":      {current: "1.0.3a4", spec: "1.0.2"},
		"unparseable current": {current: "", spec: "patch"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Bump(tt.current, tt.spec, BumpOptions{})
			require.Error(t, err)
			assert.True(t, relerrors.Is(err, relerrors.Version), "want a version error, got %v", err)
		})
	}
}
