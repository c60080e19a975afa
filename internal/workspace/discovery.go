package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/manifest"
)

// FindProjectRoot detects the project the harness is used from, starting
// at config.SearchStart.
func (i *Initializer) FindProjectRoot(ctx context.Context) (string, error) {
	start, err := i.cfg.SearchStart()
	if err != nil {
		return "", errors.ConfigError("unable to determine where to search for the project root", err)
	}

	if ok, _ := i.runner.Probe(ctx, start, i.cfg.PackageManager, "--silent", "workspaces", "info"); ok {
		return findWorkspaceRoot(start)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return findPackageRoot(start, i.cfg.HarnessPackageName)
}

// findPackageRoot returns the nearest directory at or above start holding a
// package.json, skipping manifests named skip (the harness's own install in
// node_modules).
func findPackageRoot(start, skip string) (string, error) {
	for dir := start; ; {
		path := filepath.Join(dir, manifest.FileName)
		if _, err := os.Stat(path); err == nil {
			logging.Debug("found package.json", "path", path)
			pkg, err := manifest.ReadFile(path)
			if err != nil {
				return "", err
			}
			if pkg.Name == "" {
				return "", errors.ConfigError(fmt.Sprintf("missing name in %s", path), nil)
			}
			if pkg.Name != skip {
				logging.Debug("found project root", "path", dir)
				return dir, nil
			}
			logging.Debug("ignoring package.json of harness installation", "path", path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ConfigError(fmt.Sprintf("could not find package.json in any parent directory of %s", start), nil)
		}
		dir = parent
	}
}

// findWorkspaceRoot returns the nearest ancestor of start whose manifest
// declares workspaces, provided start is that root, one of its members (or
// below one), or inside its node_modules.
func findWorkspaceRoot(start string) (string, error) {
	for dir := start; ; {
		pkg, err := manifest.Read(dir)
		if err == nil && pkg.IsWorkspaceRoot() {
			rel, err := filepath.Rel(dir, start)
			if err == nil && coveredBy(filepath.ToSlash(rel), pkg.Workspaces) {
				logging.Debug("found workspace root", "path", dir)
				return dir, nil
			}
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.ConfigError(fmt.Sprintf("unable to detect yarn workspace root of %s", start), nil)
}

func coveredBy(rel string, globs []string) bool {
	if rel == "." || rel == "node_modules" || strings.HasPrefix(rel, "node_modules/") {
		return true
	}

	segments := strings.Split(rel, "/")
	for n := 1; n <= len(segments); n++ {
		prefix := strings.Join(segments[:n], "/")
		for _, glob := range globs {
			if ok, _ := doublestar.Match(strings.TrimPrefix(glob, "./"), prefix); ok {
				return true
			}
		}
	}
	return false
}
