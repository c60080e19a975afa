// Package manifest reads and writes the package.json files the harness
// deals with, and decodes yarn's workspace listing.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
)

// FileName is the package manifest file name.
const FileName = "package.json"

// Package is the subset of package.json the harness inspects.
type Package struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Private         bool              `json:"private,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Workspaces      Workspaces        `json:"workspaces,omitempty"`
}

// Workspaces holds the workspace globs of a manifest. yarn accepts both a
// plain array and an object with a "packages" array.
type Workspaces []string

func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var globs []string
	if err := json.Unmarshal(data, &globs); err == nil {
		*w = globs
		return nil
	}

	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("workspaces must be an array or an object with packages: %w", err)
	}
	*w = obj.Packages
	return nil
}

// Read parses dir/package.json. A missing or malformed file is a
// configuration error.
func Read(dir string) (*Package, error) {
	return ReadFile(filepath.Join(dir, FileName))
}

// ReadFile parses the manifest at path.
func ReadFile(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read package manifest %s", path), err)
	}

	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to parse package manifest %s", path), err)
	}
	return &pkg, nil
}

// HasKeyword reports whether keyword is listed in the manifest.
func (p *Package) HasKeyword(keyword string) bool {
	return slices.Contains(p.Keywords, keyword)
}

// Dependency returns the version specifier of a runtime dependency.
func (p *Package) Dependency(name string) (string, bool) {
	v, ok := p.Dependencies[name]
	return v, ok
}

// DevDependency returns the version specifier of a development dependency.
func (p *Package) DevDependency(name string) (string, bool) {
	v, ok := p.DevDependencies[name]
	return v, ok
}

// IsWorkspaceRoot reports whether the manifest declares workspaces.
func (p *Package) IsWorkspaceRoot() bool {
	return len(p.Workspaces) > 0
}

// WriteWorkspaceManifest writes a private workspace root manifest declaring
// globs into dir.
func WriteWorkspaceManifest(dir string, globs []string) error {
	data, err := json.Marshal(Package{Private: true, Workspaces: globs})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// WorkspaceEntry is one member of `yarn workspaces info` output.
type WorkspaceEntry struct {
	Location string `json:"location"`
}

// WorkspacesInfo maps package names to their location relative to the
// workspace root.
type WorkspacesInfo map[string]WorkspaceEntry

// ParseWorkspacesInfo decodes the JSON printed by
// `yarn --silent workspaces info`. Any banner lines around the JSON object
// are ignored.
func ParseWorkspacesInfo(out []byte) (WorkspacesInfo, error) {
	start := bytes.IndexByte(out, '{')
	end := bytes.LastIndexByte(out, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no workspace listing in output %q", string(out))
	}

	var info WorkspacesInfo
	if err := json.Unmarshal(out[start:end+1], &info); err != nil {
		return nil, fmt.Errorf("failed to decode workspace listing: %w", err)
	}
	return info, nil
}

// Names returns the member package names in sorted order.
func (w WorkspacesInfo) Names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
