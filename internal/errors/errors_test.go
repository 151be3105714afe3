package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCategories(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("exit status 1")
	tests := map[string]struct {
		err  *CLIError
		want ErrorCategory
	}{
		"no version source":    {err: NoVersionSource("/repo"), want: Configuration},
		"invalid spec":         {err: InvalidVersionSpec("huge", cause), want: Version},
		"not greater":          {err: VersionNotGreater("1.0.0", "1.0.1"), want: Version},
		"tag exists":           {err: TagAlreadyExists("v1.0.0"), want: Version},
		"no artifacts":         {err: NoArtifacts("dist"), want: Build},
		"build command failed": {err: BuildCommandFailed("npm pack", cause), want: Build},
		"config parse":         {err: ConfigParseError(".relcut.toml", cause), want: Configuration},
		"missing entry":        {err: MissingChangelogEntry("CHANGELOG.md", "1.0.0"), want: Configuration},
		"repo not detected":    {err: RepoNotDetected(), want: Configuration},
		"not a repository":     {err: GitNotRepository("/tmp/x"), want: Configuration},
		"network":              {err: NewNetworkError(cause, "listing pull requests"), want: Network},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.err.Category)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestWrapping(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("connection refused")

	wrapped := Wrap(cause, Network)
	assert.Equal(t, "connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	withMsg := WrapWithMessage(cause, Build, "running hook")
	assert.Equal(t, "running hook: connection refused", withMsg.Error())
	assert.ErrorIs(t, withMsg, cause)

	assert.Nil(t, Wrap(nil, Build))
	assert.Nil(t, WrapWithMessage(nil, Build, "x"))
	assert.Nil(t, NewNetworkError(nil, "x"))
}

func TestIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("bumping packages/pkg1: %w", TagAlreadyExists("v1.0.0"))

	assert.True(t, Is(err, Version))
	assert.False(t, Is(err, Build))
	assert.False(t, Is(stderrors.New("plain"), Version))
	assert.True(t, IsCLIError(err))

	cliErr := AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, "tag v1.0.0 already exists", cliErr.Message)
}

func TestFormatErrorPlain(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  *CLIError
		want []string
	}{
		"with remediation": {
			err: TagAlreadyExists("v1.0.0"),
			want: []string{
				"Error [Version Error]: tag v1.0.0 already exists\n",
				"To fix this:\n",
				"  • Choose a different version\n",
			},
		},
		"with usage": {
			err:  NewArgumentErrorWithUsage("missing version", "relcut release-commit <version>"),
			want: []string{"Error [Argument Error]: missing version\n", "Usage: relcut release-commit <version>\n"},
		},
		"network note": {
			err:  NewNetworkError(stderrors.New("502 Bad Gateway"), "listing pull requests"),
			want: []string{"listing pull requests: 502 Bad Gateway", "not retried"},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out := FormatErrorPlain(tt.err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatSimpleError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatSimpleError(nil, Runtime))

	plain := FormatSimpleError(stderrors.New("boom"), Runtime)
	assert.Contains(t, plain, "boom")
	assert.Contains(t, plain, "Runtime Error")

	// A categorized error in the chain keeps its own category.
	nested := FormatSimpleError(fmt.Errorf("wrap: %w", NoArtifacts("dist")), Runtime)
	assert.Contains(t, nested, "Build Error")
	assert.False(t, strings.Contains(nested, "Runtime Error"))
}

func TestCategoryString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Configuration Error", Configuration.String())
	assert.Equal(t, "Network Error", Network.String())
	assert.Equal(t, "Error", ErrorCategory(99).String())
}
