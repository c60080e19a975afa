package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// EnvConfigPath names a TOML file that overrides the defaults.
	EnvConfigPath = "EMBER_ADDON_TESTS_CONFIG"

	// HarnessPackageName is the npm name under which this harness is
	// installed into a consuming project's node_modules.
	HarnessPackageName = "ember-addon-tests"

	DefaultServerPort = 4200
)

// Config holds the binaries and conventions the harness drives.
type Config struct {
	// PackageManager runs init/install/add/workspaces info.
	PackageManager string `toml:"package_manager"`

	// PackageRunner executes a version-pinned generator package once (npx).
	PackageRunner string `toml:"package_runner"`

	// EmberBinary is the framework CLI resolved from a project's PATH.
	EmberBinary string `toml:"ember_binary"`

	// GeneratorPackage is the npm package providing `new` and `addon`.
	GeneratorPackage string `toml:"generator_package"`

	// HarnessPackageName is skipped while auto-detecting the project root.
	HarnessPackageName string `toml:"harness_package_name"`

	// TempDir is where workspaces are allocated. Empty means os.TempDir().
	TempDir string `toml:"temp_dir"`

	// GeneratorDir is the working directory for the generator, which must be
	// outside any workspace. Empty means the user's home directory.
	GeneratorDir string `toml:"generator_dir"`

	// SearchFrom is where project root auto-detection starts. Empty means
	// the directory of the running executable, or the working directory
	// when the executable lives under the OS temp dir (go test, go run).
	SearchFrom string `toml:"search_from"`

	// ExcludeDirs are top-level directories never copied into a workspace.
	ExcludeDirs []string `toml:"exclude_dirs"`

	// ReadinessIndicators are substrings on the dev server's stdout that
	// signal a successful start.
	ReadinessIndicators []string `toml:"readiness_indicators"`

	// ServerPort is the port the dev server binds when none is requested.
	ServerPort int `toml:"server_port"`
}

// Default returns the configuration matching yarn v1 and Ember CLI.
func Default() *Config {
	return &Config{
		PackageManager:     "yarn",
		PackageRunner:      "npx",
		EmberBinary:        "ember",
		GeneratorPackage:   "ember-cli",
		HarnessPackageName: HarnessPackageName,
		ExcludeDirs:        []string{".git", "node_modules"},
		ReadinessIndicators: []string{
			"Ember FastBoot running at",
			"Build successful",
		},
		ServerPort: DefaultServerPort,
	}
}

// Load reads a TOML file on top of the defaults. Keys absent from the file
// keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in config %s: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by EMBER_ADDON_TESTS_CONFIG, or returns the
// defaults when the variable is unset.
func FromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks that the Config is usable.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"package_manager":      c.PackageManager,
		"package_runner":       c.PackageRunner,
		"ember_binary":         c.EmberBinary,
		"generator_package":    c.GeneratorPackage,
		"harness_package_name": c.HarnessPackageName,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(c.ReadinessIndicators) == 0 {
		return fmt.Errorf("at least one readiness indicator is required")
	}
	for _, indicator := range c.ReadinessIndicators {
		if indicator == "" {
			return fmt.Errorf("readiness indicators must not be empty")
		}
	}

	for _, dir := range c.ExcludeDirs {
		if dir == "" || strings.ContainsRune(dir, '/') || strings.ContainsRune(dir, filepath.Separator) {
			return fmt.Errorf("invalid exclude dir %q: must be a single path segment", dir)
		}
	}

	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port %d", c.ServerPort)
	}

	return nil
}

// WorkspaceTempDir returns the directory workspaces are allocated in.
func (c *Config) WorkspaceTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return os.TempDir()
}

// GeneratorWorkingDir returns a directory outside every workspace, so the
// generator cannot pick up a workspace-local install of itself.
func (c *Config) GeneratorWorkingDir() string {
	if c.GeneratorDir != "" {
		return c.GeneratorDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.TempDir()
}

// SearchStart returns the directory project root auto-detection starts at:
// SearchFrom if set, else the directory of the running executable. Binaries
// built by go test or go run live under the OS temp dir, so for those the
// working directory is used instead.
func (c *Config) SearchStart() (string, error) {
	if c.SearchFrom != "" {
		return filepath.Abs(c.SearchFrom)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate running executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	dir := filepath.Dir(exe)
	if isWithin(dir, os.TempDir()) {
		return os.Getwd()
	}
	return dir, nil
}

// isWithin reports whether path is dir or below it.
func isWithin(path, dir string) bool {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsExcluded reports whether a top-level path segment must not be copied.
func (c *Config) IsExcluded(segment string) bool {
	for _, dir := range c.ExcludeDirs {
		if segment == dir {
			return true
		}
	}
	return false
}
