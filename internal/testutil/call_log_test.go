package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadCallLog(t *testing.T) {
	tests := map[string]struct {
		records      []CallRecord
		wantEntries  int
		wantCommand  string
		wantArgs     []string
		wantError    string
		wantExitCode int
	}{
		"successful command": {
			records: []CallRecord{{
				Command:   "hatch",
				Dir:       "/tmp/pkg",
				Args:      []string{"version"},
				Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
				Response:  "0.0.1",
			}},
			wantEntries: 1,
			wantCommand: "hatch",
			wantArgs:    []string{"version"},
		},
		"failed command": {
			records: []CallRecord{{
				Command:   "npm",
				Args:      []string{"pack"},
				Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
				Error:     errors.New("exit status 1"),
				ExitCode:  1,
			}},
			wantEntries:  1,
			wantCommand:  "npm",
			wantArgs:     []string{"pack"},
			wantError:    "exit status 1",
			wantExitCode: 1,
		},
		"empty records": {
			records:     []CallRecord{},
			wantEntries: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "call_log.yaml")

			require.NoError(t, WriteCallLog(logPath, tt.records))
			log, err := ReadCallLog(logPath)
			require.NoError(t, err)
			require.Len(t, log.Entries, tt.wantEntries)
			if tt.wantEntries == 0 {
				return
			}

			entry := log.Entries[0]
			assert.Equal(t, tt.wantCommand, entry.Command)
			assert.Equal(t, tt.wantArgs, entry.Args)
			assert.Equal(t, tt.wantError, entry.Error)
			assert.Equal(t, tt.wantError != "", entry.HasError())
			assert.Equal(t, tt.wantExitCode, entry.ExitCode)
		})
	}
}

func TestReadCallLogFileNotFound(t *testing.T) {
	_, err := ReadCallLog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFakeRunner(t *testing.T) {
	dir := t.TempDir()
	runner := NewFakeRunner().
		On("hatch version", FakeResponse{Output: "0.0.1\n"}).
		On("python -m build", FakeResponse{Files: map[string]string{"dist/foo.tar.gz": "x"}}).
		On("npm pack", FakeResponse{Err: errors.New("boom")})

	out, err := runner.Run(context.Background(), dir, "hatch", "version")
	require.NoError(t, err)
	assert.Equal(t, "0.0.1\n", out)

	_, err = runner.Run(context.Background(), dir, "python", "-m", "build", "--outdir", "dist")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dist", "foo.tar.gz"))

	_, err = runner.Run(context.Background(), dir, "npm", "pack")
	assert.EqualError(t, err, "boom")

	out, err = runner.Run(context.Background(), dir, "echo", "hi")
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Equal(t, []string{
		"hatch version",
		"python -m build --outdir dist",
		"npm pack",
		"echo hi",
	}, runner.Lines())
	assert.Equal(t, 1, runner.Calls()[2].ExitCode)
}
