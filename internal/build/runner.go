// Package build runs external release tooling: Python and npm build backends,
// configured hook commands, and artifact discovery. It also carries the relcut
// binary's own build information.
package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes an external command in dir and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the process environment.
	Env []string
	Log zerolog.Logger
}

// NewExecRunner returns an ExecRunner logging to log.
func NewExecRunner(log zerolog.Logger) *ExecRunner {
	return &ExecRunner{Log: log}
}

// Run implements Runner. On failure the error carries the command's stderr.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.Log.Debug().Str("dir", dir).Str("cmd", line).Msg("running command")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return stdout.String(), fmt.Errorf("%s: %w", line, err)
		}
		return stdout.String(), fmt.Errorf("%s: %w: %s", line, err, msg)
	}
	return stdout.String(), nil
}
