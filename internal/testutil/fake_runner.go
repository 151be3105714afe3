package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// CallRecord captures one command invocation seen by FakeRunner.
type CallRecord struct {
	Command   string
	Dir       string
	Args      []string
	Timestamp time.Time
	Response  string
	Error     error
	ExitCode  int
}

// Line renders the invocation as a shell-like string.
func (r CallRecord) Line() string {
	return strings.TrimSpace(r.Command + " " + strings.Join(r.Args, " "))
}

// FakeResponse is the canned result for a command line.
type FakeResponse struct {
	Output string
	Err    error
	// Files are written relative to the invocation directory before returning,
	// standing in for build outputs.
	Files map[string]string
}

// FakeRunner records every command and answers from canned responses keyed by
// the full command line ("hatch version") or its prefix ("python -m build").
// Unknown commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]FakeResponse
	calls     []CallRecord
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string]FakeResponse)}
}

// On registers the response for a command line or prefix.
func (f *FakeRunner) On(line string, resp FakeResponse) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = resp
	return f
}

// Run implements the build runner contract.
func (f *FakeRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	rec := CallRecord{Command: name, Dir: dir, Args: append([]string(nil), args...), Timestamp: time.Now()}
	if err := ctx.Err(); err != nil {
		rec.Error = err
		f.record(rec)
		return "", err
	}

	resp, ok := f.lookup(rec.Line())
	if ok {
		for rel, content := range resp.Files {
			path := filepath.Join(dir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", fmt.Errorf("fake runner: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("fake runner: %w", err)
			}
		}
	}

	rec.Response = resp.Output
	rec.Error = resp.Err
	if resp.Err != nil {
		rec.ExitCode = 1
	}
	f.record(rec)
	return resp.Output, resp.Err
}

func (f *FakeRunner) lookup(line string) (FakeResponse, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, ok := f.responses[line]; ok {
		return resp, true
	}
	best, found := "", false
	for key := range f.responses {
		if strings.HasPrefix(line, key+" ") && len(key) > len(best) {
			best, found = key, true
		}
	}
	return f.responses[best], found
}

func (f *FakeRunner) record(rec CallRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rec)
}

// Calls returns a copy of the recorded invocations in order.
func (f *FakeRunner) Calls() []CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CallRecord(nil), f.calls...)
}

// Lines returns the recorded invocations as command lines.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}
