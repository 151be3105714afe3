// Package npm prepares npm credentials for publishing.
package npm

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	relerrors "github.com/ariel-frischer/relcut/internal/errors"
)

// DefaultRegistry is used when no registry is configured.
const DefaultRegistry = "https://registry.npmjs.org/"

// AuthLine returns the .npmrc line granting token access to registry,
// e.g. "//registry.npmjs.org/:_authToken=abc".
func AuthLine(token, registry string) (string, error) {
	if registry == "" {
		registry = DefaultRegistry
	}
	u, err := url.Parse(registry)
	if err != nil || u.Host == "" {
		return "", relerrors.NewConfigError(
			fmt.Sprintf("invalid npm registry %q", registry),
			"Use a full URL such as "+DefaultRegistry,
		)
	}
	path := strings.TrimSuffix(u.Path, "/")
	return fmt.Sprintf("//%s%s/:_authToken=%s", u.Host, path, token), nil
}

// HandleNpmConfig writes the auth line for registry into the .npmrc at
// npmrcPath. An existing line for the same registry is replaced; every
// other line is kept.
func HandleNpmConfig(token, registry, npmrcPath string) error {
	if token == "" {
		return relerrors.NewConfigError("no npm token provided",
			"Pass --token or set NPM_TOKEN",
		)
	}
	line, err := AuthLine(token, registry)
	if err != nil {
		return err
	}
	prefix := line[:strings.Index(line, "_authToken=")]

	var lines []string
	data, err := os.ReadFile(npmrcPath)
	switch {
	case err == nil:
		for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if l == "" || strings.HasPrefix(strings.TrimSpace(l), prefix) {
				continue
			}
			lines = append(lines, l)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "reading "+npmrcPath)
	}
	lines = append(lines, line)

	if err := os.WriteFile(npmrcPath, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		return relerrors.WrapWithMessage(err, relerrors.Configuration, "writing "+npmrcPath)
	}
	return nil
}
