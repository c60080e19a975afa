package testutil

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

//go:embed all:fixtures
var fixturesFS embed.FS

const (
	// NPMPackageName is the name declared by the npm-package fixture.
	NPMPackageName = "npm-package"
)

// YarnWorkspaceMembers are the members of the yarn-workspace fixture.
var YarnWorkspaceMembers = []string{"bar", "foo"}

// LoadFixture reads a single fixture file, e.g. "npm-package/package.json".
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// CopyFixture materializes the named fixture tree into a new temporary
// directory and returns its path.
func CopyFixture(t *testing.T, name string) string {
	t.Helper()

	sub, err := fs.Sub(fixturesFS, "fixtures/"+name)
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}

	dst := filepath.Join(t.TempDir(), name)
	if err := os.CopyFS(dst, sub); err != nil {
		t.Fatalf("failed to copy fixture %s: %v", name, err)
	}
	return dst
}

// NPMPackage returns a single-package project root.
func NPMPackage(t *testing.T) string {
	t.Helper()
	root := CopyFixture(t, "npm-package")
	addIgnoredDirs(t, root)
	return root
}

// YarnWorkspace returns a yarn workspace root with members foo and bar.
func YarnWorkspace(t *testing.T) string {
	t.Helper()
	root := CopyFixture(t, "yarn-workspace")
	addIgnoredDirs(t, root)
	for _, member := range YarnWorkspaceMembers {
		addIgnoredDirs(t, filepath.Join(root, "packages", member))
	}
	return root
}

// addIgnoredDirs creates .git and node_modules content that must never end
// up in a workspace.
func addIgnoredDirs(t *testing.T, root string) {
	t.Helper()
	WriteFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
	WriteFile(t, filepath.Join(root, "node_modules", "left-pad", "package.json"), `{"name":"left-pad","version":"1.3.0"}`)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
