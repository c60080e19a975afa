package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.PackageManager != "yarn" {
		t.Errorf("PackageManager = %q, want yarn", cfg.PackageManager)
	}
	if cfg.PackageRunner != "npx" {
		t.Errorf("PackageRunner = %q, want npx", cfg.PackageRunner)
	}
	if cfg.HarnessPackageName != HarnessPackageName {
		t.Errorf("HarnessPackageName = %q, want %q", cfg.HarnessPackageName, HarnessPackageName)
	}
	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if len(cfg.ReadinessIndicators) != 2 {
		t.Errorf("ReadinessIndicators = %v, want 2 entries", cfg.ReadinessIndicators)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "harness.toml")
	content := `
package_manager = "/opt/yarn/bin/yarn"
exclude_dirs = [".git", "node_modules", "dist"]
server_port = 4300
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PackageManager != "/opt/yarn/bin/yarn" {
		t.Errorf("PackageManager = %q", cfg.PackageManager)
	}
	if len(cfg.ExcludeDirs) != 3 || cfg.ExcludeDirs[2] != "dist" {
		t.Errorf("ExcludeDirs = %v", cfg.ExcludeDirs)
	}
	if cfg.ServerPort != 4300 {
		t.Errorf("ServerPort = %d, want 4300", cfg.ServerPort)
	}
	// Untouched keys keep their defaults
	if cfg.EmberBinary != "ember" {
		t.Errorf("EmberBinary = %q, want default", cfg.EmberBinary)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.toml")
	if err := os.WriteFile(path, []byte(`packge_manager = "pnpm"`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "packge_manager") {
		t.Errorf("error should name the unknown key, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.toml")
	if err := os.WriteFile(path, []byte(`readiness_indicators = []`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for empty readiness indicators")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.PackageManager != "yarn" {
		t.Errorf("expected defaults without %s", EnvConfigPath)
	}

	path := filepath.Join(t.TempDir(), "harness.toml")
	if err := os.WriteFile(path, []byte(`ember_binary = "/usr/local/bin/ember"`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err = FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.EmberBinary != "/usr/local/bin/ember" {
		t.Errorf("EmberBinary = %q", cfg.EmberBinary)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty package manager", func(c *Config) { c.PackageManager = "" }, true},
		{"blank ember binary", func(c *Config) { c.EmberBinary = "  " }, true},
		{"empty indicator", func(c *Config) { c.ReadinessIndicators = []string{""} }, true},
		{"nested exclude dir", func(c *Config) { c.ExcludeDirs = []string{"a/b"} }, true},
		{"empty exclude dir", func(c *Config) { c.ExcludeDirs = []string{""} }, true},
		{"no exclude dirs", func(c *Config) { c.ExcludeDirs = nil }, false},
		{"negative port", func(c *Config) { c.ServerPort = -1 }, true},
		{"port too large", func(c *Config) { c.ServerPort = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDirectories(t *testing.T) {
	cfg := Default()
	if cfg.WorkspaceTempDir() != os.TempDir() {
		t.Errorf("WorkspaceTempDir() = %q, want os.TempDir()", cfg.WorkspaceTempDir())
	}

	cfg.TempDir = "/var/tmp"
	if cfg.WorkspaceTempDir() != "/var/tmp" {
		t.Errorf("WorkspaceTempDir() = %q, want /var/tmp", cfg.WorkspaceTempDir())
	}

	cfg.GeneratorDir = "/srv"
	if cfg.GeneratorWorkingDir() != "/srv" {
		t.Errorf("GeneratorWorkingDir() = %q, want /srv", cfg.GeneratorWorkingDir())
	}

	cfg.GeneratorDir = ""
	if cfg.GeneratorWorkingDir() == "" {
		t.Error("GeneratorWorkingDir() should fall back to home or temp dir")
	}
}

func TestSearchStart(t *testing.T) {
	cfg := Default()
	cfg.SearchFrom = "."

	start, err := cfg.SearchStart()
	if err != nil {
		t.Fatalf("SearchStart failed: %v", err)
	}
	if !filepath.IsAbs(start) {
		t.Errorf("SearchStart() = %q, want absolute path", start)
	}

	cfg.SearchFrom = ""
	start, err = cfg.SearchStart()
	if err != nil {
		t.Fatalf("SearchStart failed: %v", err)
	}
	if start == "" {
		t.Error("SearchStart() should default to the executable directory")
	}
}

func TestSearchStart_TempExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("TMPDIR is not consulted on windows")
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	// Make the test binary look like a go run build.
	t.Setenv("TMPDIR", filepath.Dir(filepath.Dir(exe)))
	wd := t.TempDir()
	t.Chdir(wd)
	want, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Default().SearchStart()
	if err != nil {
		t.Fatalf("SearchStart failed: %v", err)
	}
	if got != want {
		t.Errorf("SearchStart() = %q, want working directory %q", got, want)
	}
}

func TestIsWithin(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want bool
	}{
		{tmp, true},
		{filepath.Join(tmp, "go-build123", "b001"), true},
		{filepath.Dir(tmp), false},
		{tmp + "-other", false},
		{"/usr/local/bin", false},
	}
	for _, tt := range tests {
		if got := isWithin(tt.path, tmp); got != tt.want {
			t.Errorf("isWithin(%q, %q) = %v, want %v", tt.path, tmp, got, tt.want)
		}
	}
}

func TestIsExcluded(t *testing.T) {
	cfg := Default()

	for _, seg := range []string{".git", "node_modules"} {
		if !cfg.IsExcluded(seg) {
			t.Errorf("IsExcluded(%q) = false, want true", seg)
		}
	}
	for _, seg := range []string{".github", "node_modules_backup", "src"} {
		if cfg.IsExcluded(seg) {
			t.Errorf("IsExcluded(%q) = true, want false", seg)
		}
	}
}
