package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// Ecosystem names a package ecosystem.
type Ecosystem string

const (
	Python Ecosystem = "python"
	NPM    Ecosystem = "npm"
)

// Backend builds distributable artifacts for one ecosystem.
type Backend interface {
	Ecosystem() Ecosystem
	// Build writes artifacts for the package in dir into outDir.
	Build(ctx context.Context, dir, outDir string) error
}

// PythonBackend builds with PyPA build and queries dynamic versions with hatch.
type PythonBackend struct {
	Runner Runner
}

func (PythonBackend) Ecosystem() Ecosystem { return Python }

// Build runs "python -m build --outdir <outDir> .".
func (b PythonBackend) Build(ctx context.Context, dir, outDir string) error {
	if _, err := b.Runner.Run(ctx, dir, "python", "-m", "build", "--outdir", outDir, "."); err != nil {
		return relerrors.BuildCommandFailed("python -m build", err)
	}
	return nil
}

// Version asks hatch for the project's computed version.
func (b PythonBackend) Version(ctx context.Context, dir string) (string, error) {
	out, err := b.Runner.Run(ctx, dir, "hatch", "version")
	if err != nil {
		return "", relerrors.BuildCommandFailed("hatch version", err)
	}
	return lastLine(out), nil
}

// SetVersion asks hatch to write a new version.
func (b PythonBackend) SetVersion(ctx context.Context, dir, v string) error {
	if _, err := b.Runner.Run(ctx, dir, "hatch", "version", v); err != nil {
		return relerrors.BuildCommandFailed("hatch version "+v, err)
	}
	return nil
}

// lastLine returns the last non-empty line; hatch may print build-env chatter first.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// NPMBackend packs npm packages into tarballs.
type NPMBackend struct {
	Runner Runner
}

func (NPMBackend) Ecosystem() Ecosystem { return NPM }

// Build runs "npm pack --pack-destination <outDir>".
func (b NPMBackend) Build(ctx context.Context, dir, outDir string) error {
	if _, err := b.Runner.Run(ctx, dir, "npm", "pack", "--pack-destination", outDir); err != nil {
		return relerrors.BuildCommandFailed("npm pack", err)
	}
	return nil
}

// DetectEcosystems reports which ecosystems have a manifest in dir.
func DetectEcosystems(dir string) []Ecosystem {
	var out []Ecosystem
	if exists(filepath.Join(dir, "pyproject.toml")) || exists(filepath.Join(dir, "setup.py")) || exists(filepath.Join(dir, "setup.cfg")) {
		out = append(out, Python)
	}
	if exists(filepath.Join(dir, "package.json")) {
		out = append(out, NPM)
	}
	return out
}

// Backends returns a backend for each ecosystem detected in dir.
func Backends(dir string, runner Runner) []Backend {
	var out []Backend
	for _, eco := range DetectEcosystems(dir) {
		switch eco {
		case Python:
			out = append(out, PythonBackend{Runner: runner})
		case NPM:
			out = append(out, NPMBackend{Runner: runner})
		}
	}
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// BuildAll runs every backend for the package in dir, writing into outDir,
// and returns the artifacts found there afterwards. When hooks is non-nil the
// before-build-<ecosystem> and after-build-<ecosystem> hooks run around each
// backend.
func BuildAll(ctx context.Context, dir, outDir string, backends []Backend, hooks HookFunc, log zerolog.Logger) ([]string, error) {
	if len(backends) == 0 {
		return nil, relerrors.NewBuildError("no build backend found in "+dir,
			"Add a pyproject.toml, setup.py or package.json")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, relerrors.WrapWithMessage(err, relerrors.Build, "creating "+outDir)
	}

	for _, b := range backends {
		eco := b.Ecosystem()
		if hooks != nil {
			if err := hooks(ctx, dir, EcosystemHook(HookBeforeBuild, eco)); err != nil {
				return nil, err
			}
		}
		log.Info().Str("ecosystem", string(eco)).Str("dir", dir).Msg("building")
		if err := b.Build(ctx, dir, outDir); err != nil {
			return nil, err
		}
		if hooks != nil {
			if err := hooks(ctx, dir, EcosystemHook(HookAfterBuild, eco)); err != nil {
				return nil, err
			}
		}
	}
	return ListArtifacts(outDir)
}

// ListArtifacts returns every regular file below distDir, sorted. A missing
// or empty directory is a build error.
func ListArtifacts(distDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(distDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, relerrors.NoArtifacts(distDir)
	}
	if err != nil {
		return nil, relerrors.WrapWithMessage(err, relerrors.Build, "listing artifacts in "+distDir)
	}
	if len(files) == 0 {
		return nil, relerrors.NoArtifacts(distDir)
	}
	sort.Strings(files)
	return files, nil
}
