package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
)

// HelperProcessConfig configures the behavior of a helper process.
type HelperProcessConfig struct {
	// ExitCode is the exit code to return (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
}

// Environment variables understood by a helper process.
const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
)

// RunHelperProcess turns the current test binary into a fake subprocess when
// GO_WANT_HELPER_PROCESS=1. Call it from a dedicated test function:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.RunHelperProcess(t)
//	}
//
// Without the variable it returns immediately.
func RunHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := HelperProcessConfig{}
	if raw := os.Getenv(EnvHelperProcessConfig); raw != "" {
		_ = json.Unmarshal([]byte(raw), &config)
	}
	if config.Stdout != "" {
		fmt.Fprint(os.Stdout, config.Stdout)
	}
	if config.Stderr != "" {
		fmt.Fprint(os.Stderr, config.Stderr)
	}
	os.Exit(config.ExitCode)
}

// HelperCommand returns the binary and arguments that re-run the current test
// binary as a helper process, plus the extra environment selecting config.
// testName names the function calling RunHelperProcess.
func HelperCommand(t *testing.T, testName string, config HelperProcessConfig) (name string, args []string, env []string) {
	t.Helper()

	bin, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}

	raw, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("encode helper config: %v", err)
	}
	env = []string{
		EnvWantHelperProcess + "=1",
		EnvHelperProcessConfig + "=" + string(raw),
	}
	return bin, []string{"-test.run=^" + testName + "$"}, env
}
