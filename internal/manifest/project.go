package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ariel-frischer/relcut/internal/build"
	"github.com/ariel-frischer/relcut/internal/changelog"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/version"
)

// Project is one package directory. All paths derive from Dir; the process
// working directory is never consulted.
type Project struct {
	Dir    string
	Runner build.Runner
	Log    zerolog.Logger
}

// NewProject returns a Project rooted at dir.
func NewProject(dir string, runner build.Runner, log zerolog.Logger) *Project {
	return &Project{Dir: dir, Runner: runner, Log: log}
}

// Descriptor detects the project's version source.
func (p *Project) Descriptor() (Descriptor, error) {
	return Detect(p.Dir, p.Runner)
}

// GetVersion returns the project's current version.
func (p *Project) GetVersion(ctx context.Context) (string, error) {
	d, err := p.Descriptor()
	if err != nil {
		return "", err
	}
	v, err := d.ReadVersion(ctx)
	if err != nil {
		return "", relerrors.WrapWithMessage(err, relerrors.Configuration,
			fmt.Sprintf("reading version from %s", d.Path()))
	}
	p.Log.Debug().Str("kind", string(d.Kind())).Str("path", d.Path()).Str("version", v).Msg("read version")
	return v, nil
}

// BumpOptions tunes BumpVersion.
type BumpOptions struct {
	// ChangelogPath, when set, lets the changelog's topmost version serve as
	// the base for bumping a dev release.
	ChangelogPath string
	// TagExists, when set, is asked about "v<new version>" before anything
	// is written. An existing tag aborts the bump.
	TagExists func(tag string) (bool, error)
}

// BumpVersion resolves spec against the current version, rewrites the
// authoritative manifest, and keeps a sibling package.json in step. It
// returns the new version.
func (p *Project) BumpVersion(ctx context.Context, spec string, opts BumpOptions) (string, error) {
	d, err := p.Descriptor()
	if err != nil {
		return "", err
	}
	current, err := d.ReadVersion(ctx)
	if err != nil {
		return "", relerrors.WrapWithMessage(err, relerrors.Configuration,
			fmt.Sprintf("reading version from %s", d.Path()))
	}

	var bopts version.BumpOptions
	if opts.ChangelogPath != "" {
		text, err := os.ReadFile(opts.ChangelogPath)
		if err != nil {
			return "", relerrors.WrapWithMessage(err, relerrors.Configuration,
				"reading changelog "+opts.ChangelogPath)
		}
		bopts.ChangelogVersion = changelog.ExtractCurrentVersion(string(text))
	}

	res, err := version.Bump(current, spec, bopts)
	if err != nil {
		return "", err
	}

	if opts.TagExists != nil {
		tag := "v" + res.Version
		exists, err := opts.TagExists(tag)
		if err != nil {
			return "", relerrors.WrapWithMessage(err, relerrors.Configuration, "checking tag "+tag)
		}
		if exists {
			return "", relerrors.TagAlreadyExists(tag)
		}
	}

	if err := d.WriteVersion(ctx, res.Version); err != nil {
		return "", relerrors.WrapWithMessage(err, relerrors.Configuration,
			fmt.Sprintf("writing version to %s", d.Path()))
	}
	p.Log.Info().Str("from", current).Str("to", res.Version).Str("path", d.Path()).Msg("bumped version")

	if d.Kind() != KindPackage {
		if err := p.syncPackageJSON(ctx, res.Version); err != nil {
			return "", err
		}
	}
	return res.Version, nil
}

// syncPackageJSON mirrors a Python version into package.json in SemVer form.
func (p *Project) syncPackageJSON(ctx context.Context, v string) error {
	path := filepath.Join(p.Dir, PackageJSONFile)
	if !hasPackageVersion(path) {
		return nil
	}
	parsed, err := version.Parse(v)
	if err != nil {
		return relerrors.InvalidVersionSpec(v, err)
	}
	semver := parsed.ToSemVer().String()
	if err := (PackageManifest{File: path}).WriteVersion(ctx, semver); err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "writing version to "+path)
	}
	p.Log.Debug().Str("version", semver).Msg("synced package.json")
	return nil
}

// Workspace is a repository holding one or more packages.
type Workspace struct {
	Root string
	// Packages are directories relative to Root; empty means Root itself.
	Packages []string
	Runner   build.Runner
	Log      zerolog.Logger
}

// Projects returns a Project per configured package.
func (w *Workspace) Projects() []*Project {
	if len(w.Packages) == 0 {
		return []*Project{NewProject(w.Root, w.Runner, w.Log)}
	}
	out := make([]*Project, 0, len(w.Packages))
	for _, rel := range w.Packages {
		dir := rel
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(w.Root, filepath.FromSlash(rel))
		}
		out = append(out, NewProject(dir, w.Runner, w.Log.With().Str("package", rel).Logger()))
	}
	return out
}

// PackageVersion is the outcome of bumping one package.
type PackageVersion struct {
	Dir     string
	Version string
}

// BumpAll bumps every package independently, in order. Packages already
// rewritten stay rewritten when a later one fails.
func (w *Workspace) BumpAll(ctx context.Context, spec string, opts BumpOptions) ([]PackageVersion, error) {
	var out []PackageVersion
	for _, p := range w.Projects() {
		v, err := p.BumpVersion(ctx, spec, opts)
		if err != nil {
			return out, fmt.Errorf("bumping %s: %w", p.Dir, err)
		}
		out = append(out, PackageVersion{Dir: p.Dir, Version: v})
	}
	return out, nil
}

// Versions reads the version of every package.
func (w *Workspace) Versions(ctx context.Context) ([]PackageVersion, error) {
	var out []PackageVersion
	for _, p := range w.Projects() {
		v, err := p.GetVersion(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, PackageVersion{Dir: p.Dir, Version: v})
	}
	return out, nil
}
