// Package manifest locates the authoritative version declaration of a package
// and rewrites it. Four manifest shapes are understood: a static pyproject
// version, a dynamic pyproject version sourced from a module or the build
// backend, a legacy setup.py/setup.cfg literal, and package.json.
package manifest

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/ariel-frischer/relcut/internal/build"
)

// Kind tags a Descriptor variant.
type Kind string

const (
	KindStatic  Kind = "static"
	KindDynamic Kind = "dynamic"
	KindLegacy  Kind = "legacy"
	KindPackage Kind = "package"
)

// Descriptor is the authoritative version source of one package.
type Descriptor interface {
	Kind() Kind
	// Path is the file holding the version, or the pyproject.toml when the
	// build backend computes it.
	Path() string
	ReadVersion(ctx context.Context) (string, error)
	WriteVersion(ctx context.Context, v string) error
}

// StaticManifest is a [project] version literal in pyproject.toml.
type StaticManifest struct {
	File string
}

func (m StaticManifest) Kind() Kind   { return KindStatic }
func (m StaticManifest) Path() string { return m.File }

func (m StaticManifest) ReadVersion(_ context.Context) (string, error) {
	py, err := readPyproject(m.File)
	if err != nil {
		return "", err
	}
	if py.Project.Version == "" {
		return "", fmt.Errorf("%s declares no [project] version", m.File)
	}
	return py.Project.Version, nil
}

func (m StaticManifest) WriteVersion(_ context.Context, v string) error {
	return rewriteFile(m.File, func(text string) (string, error) {
		return setProjectVersion(text, v)
	})
}

// DynamicManifest is a pyproject.toml whose version is computed elsewhere:
// from a __version__ assignment in VersionFile when set, else by the build backend.
type DynamicManifest struct {
	Pyproject   string
	VersionFile string
	Dir         string
	Backend     build.PythonBackend
}

func (m DynamicManifest) Kind() Kind { return KindDynamic }

func (m DynamicManifest) Path() string {
	if m.VersionFile != "" {
		return m.VersionFile
	}
	return m.Pyproject
}

var dunderVersionPattern = regexp.MustCompile(`(?m)^(__version__\s*(?::\s*str\s*)?=\s*)(["'])([^"']+)(["'])`)

func (m DynamicManifest) ReadVersion(ctx context.Context) (string, error) {
	if m.VersionFile == "" {
		return m.Backend.Version(ctx, m.Dir)
	}
	data, err := os.ReadFile(m.VersionFile)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", m.VersionFile, err)
	}
	match := dunderVersionPattern.FindSubmatch(data)
	if match == nil {
		return "", fmt.Errorf("no __version__ assignment in %s", m.VersionFile)
	}
	return string(match[3]), nil
}

func (m DynamicManifest) WriteVersion(ctx context.Context, v string) error {
	if m.VersionFile == "" {
		return m.Backend.SetVersion(ctx, m.Dir, v)
	}
	return rewriteFile(m.VersionFile, func(text string) (string, error) {
		return replaceFirst(dunderVersionPattern, text, v, m.VersionFile)
	})
}

// LegacyScript is a version literal in setup.py or setup.cfg.
type LegacyScript struct {
	File string
}

var (
	setupPyPattern  = regexp.MustCompile(`(\bversion\s*=\s*)(["'])([^"']+)(["'])`)
	setupCfgSection = regexp.MustCompile(`^\s*\[([^\]]+)\]`)
	setupCfgPattern = regexp.MustCompile(`^(version\s*=\s*)()([^\s#;]+)()`)
)

func (m LegacyScript) Kind() Kind   { return KindLegacy }
func (m LegacyScript) Path() string { return m.File }

// locate returns the submatch indexes of the version literal in text, or nil
// when the file declares none.
func (m LegacyScript) locate(text string) []int {
	if isSetupCfg(m.File) {
		return setupCfgVersion(text)
	}
	return setupPyPattern.FindStringSubmatchIndex(text)
}

// setupCfgVersion finds "version = X" in the [metadata] section. The
// "attr:" and "file:" directives are not literals and yield nil.
func setupCfgVersion(text string) []int {
	section := ""
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		start := offset
		offset += len(line)
		if m := setupCfgSection.FindStringSubmatch(line); m != nil {
			section = strings.TrimSpace(m[1])
			continue
		}
		if section != "metadata" {
			continue
		}
		loc := setupCfgPattern.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		value := line[loc[6]:loc[7]]
		if strings.HasPrefix(value, "attr:") || strings.HasPrefix(value, "file:") {
			return nil
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += start
			}
		}
		return loc
	}
	return nil
}

func (m LegacyScript) ReadVersion(_ context.Context) (string, error) {
	data, err := os.ReadFile(m.File)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", m.File, err)
	}
	text := string(data)
	loc := m.locate(text)
	if loc == nil {
		return "", fmt.Errorf("no literal version in %s", m.File)
	}
	return text[loc[6]:loc[7]], nil
}

func (m LegacyScript) WriteVersion(_ context.Context, v string) error {
	return rewriteFile(m.File, func(text string) (string, error) {
		return replaceAt(m.locate(text), text, v, m.File)
	})
}

// PackageManifest is the "version" field of package.json.
type PackageManifest struct {
	File string
}

func (m PackageManifest) Kind() Kind   { return KindPackage }
func (m PackageManifest) Path() string { return m.File }

func (m PackageManifest) ReadVersion(_ context.Context) (string, error) {
	data, err := os.ReadFile(m.File)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", m.File, err)
	}
	v := gjson.GetBytes(data, "version")
	if !v.Exists() || v.String() == "" {
		return "", fmt.Errorf("%s has no version field", m.File)
	}
	return v.String(), nil
}

// WriteVersion sets "version" in place; key order and formatting are kept.
func (m PackageManifest) WriteVersion(_ context.Context, v string) error {
	return rewriteFile(m.File, func(text string) (string, error) {
		return sjson.Set(text, "version", v)
	})
}

// replaceFirst swaps the third capture group of the first match of re for v.
// Patterns capture (prefix)(open quote)(value)(close quote).
func replaceFirst(re *regexp.Regexp, text, v, file string) (string, error) {
	return replaceAt(re.FindStringSubmatchIndex(text), text, v, file)
}

// replaceAt swaps the value group of submatch indexes loc for v.
func replaceAt(loc []int, text, v, file string) (string, error) {
	if loc == nil {
		return "", fmt.Errorf("no version declaration in %s", file)
	}
	return text[:loc[6]] + v + text[loc[7]:], nil
}

// rewriteFile reads path whole, applies edit, and writes the result back with
// the original permissions.
func rewriteFile(path string, edit func(string) (string, error)) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := edit(string(data))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
