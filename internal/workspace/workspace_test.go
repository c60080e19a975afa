package workspace

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/firefly-engineering/ember-addon-tests/internal/config"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
	"github.com/firefly-engineering/ember-addon-tests/internal/testutil"
)

// requireYarn skips the test if yarn is not available
func requireYarn(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("yarn"); err != nil {
		t.Skip("yarn not found in PATH, skipping test")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.TempDir = t.TempDir()
	return cfg
}

func TestInitialize_NPMPackage(t *testing.T) {
	cfg := testConfig(t)
	tc := testutil.NewToolchain(t)
	projectRoot := testutil.NPMPackage(t)

	root, err := NewInitializer(cfg, tc).Initialize(context.Background(), projectRoot)
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	if filepath.Dir(root) != cfg.TempDir || !strings.HasPrefix(filepath.Base(root), "ember-addon-tests-") {
		t.Errorf("root = %q, want ember-addon-tests-* in %s", root, cfg.TempDir)
	}

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		t.Fatal(err)
	}
	var ws struct {
		Private    bool     `json:"private"`
		Workspaces []string `json:"workspaces"`
	}
	if err := json.Unmarshal(data, &ws); err != nil {
		t.Fatal(err)
	}
	if !ws.Private || len(ws.Workspaces) != 2 || ws.Workspaces[0] != "packages-under-test/*" || ws.Workspaces[1] != "test-projects/*" {
		t.Errorf("workspace manifest = %s", data)
	}

	if !testutil.IsDir(filepath.Join(root, TestProjectsDir)) {
		t.Error("test-projects should exist")
	}

	copied := filepath.Join(root, PackagesUnderTestDir, "npm-package")
	if !testutil.IsDir(copied) {
		t.Fatal("packages-under-test/npm-package should exist")
	}
	if !testutil.Exists(filepath.Join(copied, "index.js")) {
		t.Error("index.js should be copied")
	}
	for _, excluded := range []string{".git", "node_modules"} {
		if testutil.Exists(filepath.Join(copied, excluded)) {
			t.Errorf("%s must not be copied", excluded)
		}
	}

	entries, _ := os.ReadDir(filepath.Join(root, PackagesUnderTestDir))
	if len(entries) != 1 {
		t.Errorf("packages-under-test has %d entries, want 1", len(entries))
	}

	cmd, _ := tc.LastCommand()
	if cmd.Line() != "yarn install" || cmd.Dir != root {
		t.Errorf("last command = %q in %s, want yarn install in workspace root", cmd.Line(), cmd.Dir)
	}
}

func TestInitialize_YarnWorkspace(t *testing.T) {
	cfg := testConfig(t)
	tc := testutil.NewToolchain(t)

	root, err := NewInitializer(cfg, tc).Initialize(context.Background(), testutil.YarnWorkspace(t))
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	for _, member := range testutil.YarnWorkspaceMembers {
		dir := filepath.Join(root, PackagesUnderTestDir, member)
		if !testutil.IsDir(dir) {
			t.Errorf("packages-under-test/%s should be a directory", member)
		}
		if testutil.Exists(filepath.Join(dir, "node_modules")) {
			t.Errorf("node_modules of %s must not be copied", member)
		}
	}
	if testutil.Exists(filepath.Join(root, PackagesUnderTestDir, "yarn-workspace")) {
		t.Error("the workspace root itself is not a package under test")
	}
}

func TestInitialize_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{"missing manifest", func(t *testing.T) string { return t.TempDir() }},
		{"missing name", func(t *testing.T) string {
			dir := t.TempDir()
			testutil.WriteFile(t, filepath.Join(dir, "package.json"), `{"version": "1.0.0"}`)
			return dir
		}},
		{"unreadable manifest", func(t *testing.T) string {
			dir := t.TempDir()
			testutil.WriteFile(t, filepath.Join(dir, "package.json"), `{"name": "broken",`)
			return dir
		}},
		{"missing root", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := testutil.NewToolchain(t)
			_, err := NewInitializer(testConfig(t), tc).Initialize(context.Background(), tt.setup(t))
			if !errors.Is(err, errors.ErrConfiguration) {
				t.Fatalf("err = %v, want configuration error", err)
			}
			for _, line := range tc.CommandLines() {
				if line == "yarn install" {
					t.Error("install must not run after a configuration error")
				}
			}
		})
	}
}

func TestInitialize_InstallFails(t *testing.T) {
	mock := system.NewMockExecutor()
	mock.AddFailure("yarn --silent workspaces info", 1, "")
	mock.AddFailure("yarn install", 1, "error An unexpected error occurred")

	_, err := NewInitializer(testConfig(t), mock).Initialize(context.Background(), testutil.NPMPackage(t))
	if !errors.Is(err, errors.ErrProcess) {
		t.Fatalf("err = %v, want process error", err)
	}
	if !strings.Contains(err.Error(), "installing dependencies of packages under test failed") {
		t.Errorf("err = %v, want context in message", err)
	}
}

func TestInitialize_DuplicateDirName(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "package.json"), `{"private": true, "workspaces": ["packages/*/*"]}`)
	testutil.WriteFile(t, filepath.Join(root, "packages", "a", "x", "package.json"), `{"name": "@a/x"}`)
	testutil.WriteFile(t, filepath.Join(root, "packages", "b", "x", "package.json"), `{"name": "@b/x"}`)

	_, err := NewInitializer(testConfig(t), testutil.NewToolchain(t)).Initialize(context.Background(), root)
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
}

func TestPackagesUnderTest(t *testing.T) {
	tc := testutil.NewToolchain(t)
	in := NewInitializer(testConfig(t), tc)

	root := testutil.YarnWorkspace(t)
	packages, err := in.PackagesUnderTest(context.Background(), root)
	if err != nil {
		t.Fatalf("PackagesUnderTest error: %v", err)
	}
	if len(packages) != 2 || packages[0].Name != "bar" || packages[1].Name != "foo" {
		t.Fatalf("packages = %+v", packages)
	}
	if packages[1].Location != filepath.Join(root, "packages", "foo") {
		t.Errorf("foo location = %q", packages[1].Location)
	}
}

func TestPackageUnderTest_DirName(t *testing.T) {
	tests := []struct{ name, want string }{
		{"npm-package", "npm-package"},
		{"@ember/test-helpers", "test-helpers"},
		{"@embroider/addon-shim", "addon-shim"},
	}
	for _, tt := range tests {
		if got := (PackageUnderTest{Name: tt.name}).DirName(); got != tt.want {
			t.Errorf("DirName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCopyTree_Exclusions(t *testing.T) {
	src := t.TempDir()
	for rel, content := range map[string]string{
		"index.js":                      "x",
		".gitignore":                    "node_modules\n",
		".github/workflows/ci.yml":      "on: push\n",
		".git/HEAD":                     "ref: refs/heads/main\n",
		"node_modules/a/index.js":       "a",
		"lib/node_modules/keep/file.js": "kept",
	} {
		testutil.WriteFile(t, filepath.Join(src, filepath.FromSlash(rel)), content)
	}
	if err := os.Chmod(filepath.Join(src, "index.js"), 0755); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "copy")
	cfg := config.Default()
	if err := copyTree(src, dst, cfg.IsExcluded); err != nil {
		t.Fatalf("copyTree error: %v", err)
	}

	for _, rel := range []string{"index.js", ".gitignore", ".github/workflows/ci.yml", "lib/node_modules/keep/file.js"} {
		if !testutil.Exists(filepath.Join(dst, filepath.FromSlash(rel))) {
			t.Errorf("%s should be copied", rel)
		}
	}
	for _, rel := range []string{".git", "node_modules"} {
		if testutil.Exists(filepath.Join(dst, rel)) {
			t.Errorf("%s should not be copied", rel)
		}
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "index.js"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0755 {
			t.Errorf("mode = %v, want 0755", info.Mode().Perm())
		}
	}
}

func TestCopyTree_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	src := t.TempDir()
	testutil.WriteFile(t, filepath.Join(src, "lib", "real.js"), "real")
	if err := os.Symlink("lib/real.js", filepath.Join(src, "alias.js")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("../../outside", filepath.Join(src, "lib", "escape")); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "copy")
	if err := copyTree(src, dst, config.Default().IsExcluded); err != nil {
		t.Fatalf("copyTree error: %v", err)
	}

	link, err := os.Readlink(filepath.Join(dst, "alias.js"))
	if err != nil {
		t.Fatalf("alias.js should be a symlink: %v", err)
	}
	if link != "lib/real.js" {
		t.Errorf("link target = %q", link)
	}
	if link, _ := os.Readlink(filepath.Join(dst, "lib", "escape")); link != "../../outside" {
		t.Errorf("escape link = %q, want it recreated verbatim", link)
	}
}

func TestFindPackageRoot(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "package.json"), `{"name": "consumer"}`)
	installed := filepath.Join(root, "node_modules", "ember-addon-tests")
	testutil.WriteFile(t, filepath.Join(installed, "package.json"), `{"name": "ember-addon-tests"}`)
	start := filepath.Join(installed, "dist", "lib")
	if err := os.MkdirAll(start, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := findPackageRoot(start, config.HarnessPackageName)
	if err != nil {
		t.Fatalf("findPackageRoot error: %v", err)
	}
	if got != root {
		t.Errorf("findPackageRoot = %q, want %q", got, root)
	}

	testutil.WriteFile(t, filepath.Join(installed, "dist", "package.json"), `{"version": "1.0.0"}`)
	if _, err := findPackageRoot(start, config.HarnessPackageName); !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("missing name: err = %v, want configuration error", err)
	}
}

func TestFindWorkspaceRoot(t *testing.T) {
	ws := testutil.YarnWorkspace(t)

	tests := []struct {
		name  string
		start string
		ok    bool
	}{
		{"root", ws, true},
		{"member", filepath.Join(ws, "packages", "foo"), true},
		{"below member", filepath.Join(ws, "packages", "foo", "lib"), true},
		{"installed dependency", filepath.Join(ws, "node_modules", "ember-addon-tests"), true},
		{"outside globs", filepath.Join(ws, "scripts"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.MkdirAll(tt.start, 0755); err != nil {
				t.Fatal(err)
			}
			got, err := findWorkspaceRoot(tt.start)
			if !tt.ok {
				if !errors.Is(err, errors.ErrConfiguration) {
					t.Errorf("err = %v, want configuration error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("findWorkspaceRoot error: %v", err)
			}
			if got != ws {
				t.Errorf("findWorkspaceRoot = %q, want %q", got, ws)
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	t.Run("regular project", func(t *testing.T) {
		root := testutil.NPMPackage(t)
		installed := filepath.Join(root, "node_modules", "ember-addon-tests")
		testutil.WriteFile(t, filepath.Join(installed, "package.json"), `{"name": "ember-addon-tests"}`)

		cfg := testConfig(t)
		cfg.SearchFrom = installed
		got, err := NewInitializer(cfg, testutil.NewToolchain(t)).FindProjectRoot(context.Background())
		if err != nil {
			t.Fatalf("FindProjectRoot error: %v", err)
		}
		if got != root {
			t.Errorf("FindProjectRoot = %q, want %q", got, root)
		}
	})

	t.Run("yarn workspace", func(t *testing.T) {
		ws := testutil.YarnWorkspace(t)

		cfg := testConfig(t)
		cfg.SearchFrom = filepath.Join(ws, "packages", "foo")
		got, err := NewInitializer(cfg, testutil.NewToolchain(t)).FindProjectRoot(context.Background())
		if err != nil {
			t.Fatalf("FindProjectRoot error: %v", err)
		}
		if got != ws {
			t.Errorf("FindProjectRoot = %q, want %q", got, ws)
		}
	})
}

func TestInitialize_AutoDetect(t *testing.T) {
	root := testutil.NPMPackage(t)
	cfg := testConfig(t)
	cfg.SearchFrom = root

	ws, err := NewInitializer(cfg, testutil.NewToolchain(t)).Initialize(context.Background(), "")
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if !testutil.IsDir(filepath.Join(ws, PackagesUnderTestDir, testutil.NPMPackageName)) {
		t.Error("auto-detected package should be copied")
	}
}

func TestInitialize_RealYarn(t *testing.T) {
	requireYarn(t)
	if testing.Short() {
		t.Skip("skipping yarn install in short mode")
	}

	cfg := testConfig(t)
	root, err := NewInitializer(cfg, nil).Initialize(context.Background(), testutil.YarnWorkspace(t))
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	for _, member := range testutil.YarnWorkspaceMembers {
		if !testutil.IsDir(filepath.Join(root, PackagesUnderTestDir, member)) {
			t.Errorf("packages-under-test/%s should exist", member)
		}
	}
}
