package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// pyproject holds the parts of pyproject.toml relcut reads.
type pyproject struct {
	Project struct {
		Name    string   `toml:"name"`
		Version string   `toml:"version"`
		Dynamic []string `toml:"dynamic"`
	} `toml:"project"`
	Tool struct {
		Hatch struct {
			Version struct {
				Path string `toml:"path"`
			} `toml:"version"`
		} `toml:"hatch"`
	} `toml:"tool"`
}

func (p pyproject) hasStaticVersion() bool {
	return p.Project.Version != "" && !slices.Contains(p.Project.Dynamic, "version")
}

func readPyproject(path string) (pyproject, error) {
	var py pyproject
	data, err := os.ReadFile(path)
	if err != nil {
		return py, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &py); err != nil {
		return py, fmt.Errorf("parsing %s: %w", path, err)
	}
	return py, nil
}

var (
	tableHeaderPattern = regexp.MustCompile(`^\s*\[\s*([^\[\]]+?)\s*\]\s*(#.*)?$`)
	arrayHeaderPattern = regexp.MustCompile(`^\s*\[\[`)
	versionLinePattern = regexp.MustCompile(`^(\s*version\s*=\s*)(["'])([^"']*)(["'])(.*)$`)
)

// setProjectVersion rewrites the version value of the [project] table,
// leaving every other line (comments and formatting included) untouched.
// go-toml has no comment-preserving encoder, so the edit is line based.
func setProjectVersion(text, v string) (string, error) {
	lines := strings.Split(text, "\n")
	table := ""
	for i, line := range lines {
		if arrayHeaderPattern.MatchString(line) {
			table = ""
			continue
		}
		if m := tableHeaderPattern.FindStringSubmatch(line); m != nil {
			table = m[1]
			continue
		}
		if table != "project" {
			continue
		}
		if m := versionLinePattern.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + m[2] + v + m[4] + m[5]
			return strings.Join(lines, "\n"), nil
		}
	}
	return "", fmt.Errorf("no [project] version to update")
}

func isSetupCfg(path string) bool {
	return filepath.Base(path) == "setup.cfg"
}
