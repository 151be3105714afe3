package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/relcut/internal/cli/shared"
	"github.com/ariel-frischer/relcut/internal/testutil"
)

func TestDoctor(t *testing.T) {
	tests := map[string]struct {
		installed    []string
		wantErr      bool
		wantContains []string
	}{
		"all tools present": {
			installed:    []string{"python", "hatch"},
			wantContains: []string{"✓ python: /bin/python", "✓ hatch: /bin/hatch", "○ GitHub token"},
		},
		"python missing": {
			installed:    []string{"hatch"},
			wantErr:      true,
			wantContains: []string{"✗ python: python not found in PATH"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			orig := lookPath
			lookPath = func(file string) (string, error) {
				for _, tool := range tt.installed {
					if tool == file {
						return "/bin/" + file, nil
					}
				}
				return "", errors.New("not found")
			}
			t.Cleanup(func() { lookPath = orig })

			repo := testutil.PyPackage(t)
			res := h.run(repo.Dir, "doctor")

			if tt.wantErr {
				require.Error(t, res.err)
				assert.Equal(t, shared.ExitFailure, shared.ExitCode(res.err))
			} else {
				require.NoError(t, res.err)
			}
			assert.Contains(t, res.stdout, "✓ Git repository")
			for _, want := range tt.wantContains {
				assert.Contains(t, res.stdout, want)
			}
		})
	}
}
