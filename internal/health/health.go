// Package health checks that a repository and its machine are ready to cut a
// release: configuration loads, the directory is a git checkout, and the
// build tools each package needs are on PATH. The report backs
// 'relcut doctor'.
package health

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/relcut/internal/build"
	"github.com/ariel-frischer/relcut/internal/config"
	"github.com/ariel-frischer/relcut/internal/git"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks warn when they fail instead of failing the report.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Options controls RunHealthChecks.
type Options struct {
	Dir string
	// ConfigPath is an explicit project config file, as given by --config.
	ConfigPath string
	// LookPath finds executables (default: exec.LookPath).
	LookPath func(file string) (string, error)
}

// RunHealthChecks runs all health checks and returns a report.
func RunHealthChecks(opts Options) *HealthReport {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	report := &HealthReport{Passed: true}

	cfgCheck, cfg := CheckConfig(opts.Dir, opts.ConfigPath)
	report.add(cfgCheck)

	repoCheck, repo := CheckGitRepository(opts.Dir)
	report.add(repoCheck)

	if cfg != nil && repo != nil {
		report.add(CheckRemote(repo, cfg))
	}

	var packages []string
	if cfg != nil {
		packages = cfg.Packages
	}
	for _, c := range CheckBuildTools(opts.Dir, packages, lookPath) {
		report.add(c)
	}

	if cfg != nil {
		report.add(CheckGitHubToken(cfg))
	}
	return report
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed && !c.Optional {
		r.Passed = false
	}
}

// CheckConfig loads the layered configuration for dir.
func CheckConfig(dir, configPath string) (CheckResult, *config.Configuration) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectDir:        dir,
		ProjectConfigPath: configPath,
		SkipWarnings:      true,
	})
	if err != nil {
		return CheckResult{Name: "Configuration", Message: err.Error()}, nil
	}
	return CheckResult{Name: "Configuration", Passed: true, Message: "loaded (" + string(cfg.Source) + ")"}, cfg
}

// CheckGitRepository verifies dir is inside a git work tree.
func CheckGitRepository(dir string) (CheckResult, *git.Repository) {
	repo, err := git.Open(dir)
	if err != nil {
		return CheckResult{Name: "Git repository", Message: err.Error()}, nil
	}
	return CheckResult{Name: "Git repository", Passed: true, Message: repo.Root()}, repo
}

// CheckRemote reports which GitHub repository changelog queries will target.
func CheckRemote(repo *git.Repository, cfg *config.Configuration) CheckResult {
	c := CheckResult{Name: "GitHub repository", Optional: true}
	if cfg.Repo != "" {
		c.Passed = true
		c.Message = cfg.Repo + " (repo setting)"
		return c
	}
	slug, err := repo.RemoteSlug(cfg.Remote)
	if err != nil {
		c.Message = fmt.Sprintf("cannot derive owner/name from remote %q; set repo or pass --repo", cfg.Remote)
		return c
	}
	c.Passed = true
	c.Message = slug + " (remote " + cfg.Remote + ")"
	return c
}

// CheckBuildTools verifies every package has a manifest and that the tools
// its ecosystems build with are installed. Each tool is reported once.
func CheckBuildTools(root string, packages []string, lookPath func(string) (string, error)) []CheckResult {
	dirs := []string{root}
	if len(packages) > 0 {
		dirs = dirs[:0]
		for _, rel := range packages {
			dirs = append(dirs, filepath.Join(root, filepath.FromSlash(rel)))
		}
	}

	var out []CheckResult
	seen := make(map[string]bool)
	tool := func(name string, optional bool) {
		if seen[name] {
			return
		}
		seen[name] = true
		out = append(out, checkTool(name, optional, lookPath))
	}

	for _, dir := range dirs {
		ecosystems := build.DetectEcosystems(dir)
		if len(ecosystems) == 0 {
			out = append(out, CheckResult{
				Name:    "Package manifest",
				Message: "no pyproject.toml, setup.py, setup.cfg or package.json in " + dir,
			})
			continue
		}
		for _, eco := range ecosystems {
			switch eco {
			case build.Python:
				tool("python", false)
				// hatch is only needed for dynamic versions.
				tool("hatch", true)
			case build.NPM:
				tool("npm", false)
			}
		}
	}
	return out
}

func checkTool(name string, optional bool, lookPath func(string) (string, error)) CheckResult {
	path, err := lookPath(name)
	if err != nil {
		return CheckResult{Name: name, Optional: optional, Message: name + " not found in PATH"}
	}
	return CheckResult{Name: name, Passed: true, Optional: optional, Message: path}
}

// CheckGitHubToken reports whether GitHub requests will be authenticated.
func CheckGitHubToken(cfg *config.Configuration) CheckResult {
	if cfg.GitHubToken == "" {
		return CheckResult{
			Name:     "GitHub token",
			Optional: true,
			Message:  "not set; API requests are unauthenticated and rate limited (set GITHUB_ACCESS_TOKEN)",
		}
	}
	return CheckResult{Name: "GitHub token", Passed: true, Optional: true, Message: "set"}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		mark := "✓"
		switch {
		case check.Passed:
		case check.Optional:
			mark = "○"
		default:
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return b.String()
}
