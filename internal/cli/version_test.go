package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintPlainVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printPlainVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, "relcut dev\n")
	assert.Contains(t, out, "commit: unknown\n")
	assert.Contains(t, out, "go: "+runtime.Version()+"\n")
	assert.Contains(t, out, "platform: "+runtime.GOOS+"/"+runtime.GOARCH+"\n")
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)

	res := h.run(t.TempDir(), "version")
	require.NoError(t, res.err)
	assert.Equal(t, "relcut dev", firstLine(res.stdout))

	res = h.run(t.TempDir(), "v")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "relcut dev")
}

func TestTruncateCommit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		commit string
		want   string
	}{
		"long hash":  {commit: "0123456789abcdef", want: "01234567"},
		"short hash": {commit: "abc", want: "abc"},
		"unknown":    {commit: "unknown", want: "unknown"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truncateCommit(tt.commit))
		})
	}
}

func TestSourceURLConstant(t *testing.T) {
	t.Parallel()

	assert.Contains(t, SourceURL, "github.com")
	assert.Contains(t, SourceURL, "relcut")
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
