package manifest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
	"github.com/ariel-frischer/relcut/internal/git"
	"github.com/ariel-frischer/relcut/internal/testutil"
)

func TestDetect_Order(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		files    map[string]string
		wantKind Kind
		wantPath string
		fails    bool
		category relerrors.ErrorCategory
	}{
		"static beats setup.py": {
			files:    map[string]string{"pyproject.toml": testutil.PyprojectStatic, "setup.py": testutil.SetupPy},
			wantKind: KindStatic,
			wantPath: PyprojectFile,
		},
		"setup.py beats backend": {
			files:    map[string]string{"pyproject.toml": testutil.PyprojectBackendOnly, "setup.py": testutil.SetupPy},
			wantKind: KindLegacy,
			wantPath: SetupPyFile,
		},
		"python beats package.json": {
			files:    map[string]string{"pyproject.toml": testutil.PyprojectStatic, "package.json": testutil.PackageJSON},
			wantKind: KindStatic,
			wantPath: PyprojectFile,
		},
		"setup.py without literal falls to package.json": {
			files:    map[string]string{"setup.py": "from setuptools import setup\nsetup()\n", "package.json": testutil.PackageJSON},
			wantKind: KindPackage,
			wantPath: PackageJSONFile,
		},
		"setup.cfg attr directive falls to backend": {
			files: map[string]string{
				"pyproject.toml": testutil.PyprojectBackendOnly,
				"setup.cfg":      "[metadata]\nname = foo\nversion = attr: foo.__version__\n",
			},
			wantKind: KindDynamic,
			wantPath: PyprojectFile,
		},
		"setup.cfg file directive alone": {
			files:    map[string]string{"setup.cfg": "[metadata]\nversion = file: VERSION\n"},
			fails:    true,
			category: relerrors.Configuration,
		},
		"setup.cfg version outside metadata": {
			files:    map[string]string{"setup.cfg": "[tool:bumpversion]\nversion = 9.9.9\n", "package.json": testutil.PackageJSON},
			wantKind: KindPackage,
			wantPath: PackageJSONFile,
		},
		"nothing": {
			files:    map[string]string{"README.md": "hi"},
			fails:    true,
			category: relerrors.Configuration,
		},
		"package.json without version": {
			files:    map[string]string{"package.json": `{"name": "foo"}`},
			fails:    true,
			category: relerrors.Configuration,
		},
		"broken pyproject": {
			files:    map[string]string{"pyproject.toml": "[project\nversion ="},
			fails:    true,
			category: relerrors.Configuration,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			testutil.Layout(t, dir, tt.files)

			d, err := Detect(dir, testutil.NewFakeRunner())
			if tt.fails {
				require.Error(t, err)
				assert.True(t, relerrors.Is(err, tt.category))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, d.Kind())
			assert.Equal(t, filepath.Join(dir, tt.wantPath), d.Path())
		})
	}
}

func TestProject_GetVersion(t *testing.T) {
	t.Parallel()

	repo := testutil.PyPackage(t)
	p := NewProject(repo.Dir, testutil.NewFakeRunner(), zerolog.Nop())

	v, err := p.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", v)

	_, err = NewProject(t.TempDir(), testutil.NewFakeRunner(), zerolog.Nop()).GetVersion(context.Background())
	require.Error(t, err)
	assert.True(t, relerrors.Is(err, relerrors.Configuration))
}

func TestProject_BumpVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		files     map[string]string
		spec      string
		changelog bool
		want      string
		fails     bool
		category  relerrors.ErrorCategory
		check     func(t *testing.T, dir string)
	}{
		"patch static": {
			files: map[string]string{"pyproject.toml": testutil.PyprojectStatic},
			spec:  "patch",
			want:  "0.0.2",
			check: func(t *testing.T, dir string) {
				assert.Contains(t, readFile(t, filepath.Join(dir, PyprojectFile)), `version = "0.0.2"`)
				assert.Contains(t, readFile(t, filepath.Join(dir, PyprojectFile)), "# keep this comment")
			},
		},
		"package.json kept in step": {
			files: map[string]string{"pyproject.toml": testutil.PyprojectStatic, "package.json": testutil.PackageJSON},
			spec:  "0.0.2a0",
			want:  "0.0.2a0",
			check: func(t *testing.T, dir string) {
				assert.Contains(t, readFile(t, filepath.Join(dir, PyprojectFile)), `version = "0.0.2a0"`)
				assert.Contains(t, readFile(t, filepath.Join(dir, PackageJSONFile)), `"version": "0.0.2-alpha.0"`)
			},
		},
		"npm only": {
			files: map[string]string{"package.json": testutil.PackageJSON},
			spec:  "minor",
			want:  "1.1.0",
			check: func(t *testing.T, dir string) {
				assert.Contains(t, readFile(t, filepath.Join(dir, PackageJSONFile)), `"version": "1.1.0"`)
			},
		},
		"dev from final": {
			files: map[string]string{"pyproject.toml": testutil.PyprojectDynamic, "foo/__init__.py": testutil.InitPy},
			spec:  "dev",
			want:  "0.1.0.dev0",
			check: func(t *testing.T, dir string) {
				assert.Contains(t, readFile(t, filepath.Join(dir, "foo", "__init__.py")), `__version__ = "0.1.0.dev0"`)
			},
		},
		"changelog base for dev release": {
			files: map[string]string{
				"pyproject.toml": strings.Replace(testutil.PyprojectStatic, `"0.0.1"`, `"0.1.0.dev1"`, 1),
				"CHANGELOG.md":   testutil.Changelog,
			},
			spec:      "next",
			changelog: true,
			want:      "0.0.2",
		},
		"changelog ignored without dev release": {
			files: map[string]string{
				"pyproject.toml": strings.Replace(testutil.PyprojectStatic, `"0.0.1"`, `"0.3.0"`, 1),
				"CHANGELOG.md":   testutil.Changelog,
			},
			spec:      "next",
			changelog: true,
			want:      "0.3.1",
		},
		"missing changelog": {
			files:     map[string]string{"pyproject.toml": testutil.PyprojectStatic},
			spec:      "patch",
			changelog: true,
			fails:     true,
			category:  relerrors.Configuration,
		},
		"not greater": {
			files:    map[string]string{"pyproject.toml": testutil.PyprojectStatic},
			spec:     "0.0.1",
			fails:    true,
			category: relerrors.Version,
			check: func(t *testing.T, dir string) {
				assert.Equal(t, testutil.PyprojectStatic, readFile(t, filepath.Join(dir, PyprojectFile)))
			},
		},
		"bad spec": {
			files:    map[string]string{"pyproject.toml": testutil.PyprojectStatic},
			spec:     "sideways",
			fails:    true,
			category: relerrors.Version,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			testutil.Layout(t, dir, tt.files)

			var opts BumpOptions
			if tt.changelog {
				opts.ChangelogPath = filepath.Join(dir, "CHANGELOG.md")
			}

			p := NewProject(dir, testutil.NewFakeRunner(), zerolog.Nop())
			got, err := p.BumpVersion(context.Background(), tt.spec, opts)
			if tt.fails {
				require.Error(t, err)
				assert.True(t, relerrors.Is(err, tt.category), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				v, err := p.GetVersion(context.Background())
				require.NoError(t, err)
				assert.Equal(t, tt.want, v)
			}
			if tt.check != nil {
				tt.check(t, dir)
			}
		})
	}
}

func TestProject_BumpVersionExistingTag(t *testing.T) {
	t.Parallel()

	repo := testutil.PyPackage(t)
	repo.Tag("v0.0.2")
	g, err := git.Open(repo.Dir)
	require.NoError(t, err)

	p := NewProject(repo.Dir, testutil.NewFakeRunner(), zerolog.Nop())
	_, err = p.BumpVersion(context.Background(), "patch", BumpOptions{TagExists: g.TagExists})
	require.Error(t, err)
	assert.True(t, relerrors.Is(err, relerrors.Version))
	assert.Contains(t, err.Error(), "v0.0.2")

	v, err := p.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", v, "manifest must not be rewritten")

	got, err := p.BumpVersion(context.Background(), "minor", BumpOptions{TagExists: g.TagExists})
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", got)
}

func TestWorkspace_BumpAll(t *testing.T) {
	t.Parallel()

	repo, dirs := testutil.PyMultiPackage(t, 2)
	ws := &Workspace{Root: repo.Dir, Packages: dirs, Runner: testutil.NewFakeRunner(), Log: zerolog.Nop()}

	got, err := ws.BumpAll(context.Background(), "minor", BumpOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, pv := range got {
		assert.Equal(t, filepath.Join(repo.Dir, "packages", dirs[i][len("packages/"):]), pv.Dir)
		assert.Equal(t, "0.1.0", pv.Version)
		assert.Contains(t, repo.ReadFile(dirs[i]+"/pyproject.toml"), `version = "0.1.0"`)
	}

	versions, err := ws.Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, versions)
}

func TestWorkspace_BumpAllPartialFailure(t *testing.T) {
	t.Parallel()

	repo, dirs := testutil.PyMultiPackage(t, 1)
	ws := &Workspace{Root: repo.Dir, Packages: append(dirs, "packages/missing"), Runner: testutil.NewFakeRunner(), Log: zerolog.Nop()}

	got, err := ws.BumpAll(context.Background(), "patch", BumpOptions{})
	require.Error(t, err)
	assert.True(t, relerrors.Is(err, relerrors.Configuration))
	require.Len(t, got, 1)
	assert.Contains(t, repo.ReadFile(dirs[0]+"/pyproject.toml"), `version = "0.0.2"`)
}

func TestWorkspace_DefaultsToRoot(t *testing.T) {
	t.Parallel()

	repo := testutil.PyPackage(t)
	ws := &Workspace{Root: repo.Dir, Runner: testutil.NewFakeRunner(), Log: zerolog.Nop()}

	projects := ws.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, repo.Dir, projects[0].Dir)
}
