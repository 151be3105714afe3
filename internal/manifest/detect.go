package manifest

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/ariel-frischer/relcut/internal/build"
	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// Manifest file names.
const (
	PyprojectFile   = "pyproject.toml"
	SetupPyFile     = "setup.py"
	SetupCfgFile    = "setup.cfg"
	PackageJSONFile = "package.json"
)

// Detect inspects dir and returns its authoritative version source.
//
// Resolution order: a static pyproject version; for a dynamic or absent
// pyproject version, a setup.py/setup.cfg literal, then the hatch version
// path, then the build backend; setup.py/setup.cfg alone; package.json.
// Nothing is cached: every call reads the files afresh.
func Detect(dir string, runner build.Runner) (Descriptor, error) {
	pyPath := filepath.Join(dir, PyprojectFile)
	if fileExists(pyPath) {
		py, err := readPyproject(pyPath)
		if err != nil {
			return nil, relerrors.ConfigParseError(pyPath, err)
		}
		if py.hasStaticVersion() {
			return StaticManifest{File: pyPath}, nil
		}
		if legacy, ok := detectLegacy(dir); ok {
			return legacy, nil
		}
		d := DynamicManifest{Pyproject: pyPath, Dir: dir, Backend: build.PythonBackend{Runner: runner}}
		if p := py.Tool.Hatch.Version.Path; p != "" {
			d.VersionFile = filepath.Join(dir, filepath.FromSlash(p))
		}
		return d, nil
	}

	if legacy, ok := detectLegacy(dir); ok {
		return legacy, nil
	}

	pkgPath := filepath.Join(dir, PackageJSONFile)
	if hasPackageVersion(pkgPath) {
		return PackageManifest{File: pkgPath}, nil
	}

	return nil, relerrors.NoVersionSource(dir)
}

// detectLegacy finds a setup.py or setup.cfg carrying a literal version. A
// setup.cfg that points elsewhere with attr: or file: does not count.
func detectLegacy(dir string) (Descriptor, bool) {
	for _, name := range []string{SetupPyFile, SetupCfgFile} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		l := LegacyScript{File: path}
		if l.locate(string(data)) != nil {
			return l, true
		}
	}
	return nil, false
}

func hasPackageVersion(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	v := gjson.GetBytes(data, "version")
	return v.Exists() && v.String() != ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
