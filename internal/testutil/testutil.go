package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/firefly-engineering/ember-addon-tests/internal/manifest"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
)

// LatestEmberCLI is the version the fake generator records for "latest".
const LatestEmberCLI = "3.28.0"

// Toolchain is a MockExecutor that imitates yarn v1 and npx ember-cli
// closely enough for the harness to run against it. Started processes such
// as `ember serve` are plain MockProcesses.
type Toolchain struct {
	*system.MockExecutor

	mu sync.Mutex
}

// NewToolchain creates a fake toolchain. Every handler writes its effects
// into the command's working directory.
func NewToolchain(t *testing.T) *Toolchain {
	t.Helper()
	tc := &Toolchain{MockExecutor: system.NewMockExecutor()}

	tc.AddHandler("yarn init", tc.yarnInit)
	tc.AddHandler("yarn install", ok)
	tc.AddHandler("yarn --silent workspaces info", tc.workspacesInfo)
	tc.AddHandler("yarn add", tc.yarnAdd)
	tc.AddHandler("npx", tc.generate)
	return tc
}

func ok(system.Command) (*system.Result, error) {
	return &system.Result{}, nil
}

func fail(status int, format string, args ...any) (*system.Result, error) {
	stderr := fmt.Sprintf(format, args...)
	return &system.Result{ExitStatus: status, Stderr: stderr}, &system.ExitError{Status: status}
}

// readManifest returns the raw JSON object of dir/package.json.
func readManifest(dir string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func writeManifest(dir string, obj map[string]any) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifest.FileName), append(data, '\n'), 0644)
}

func (tc *Toolchain) yarnInit(c system.Command) (*system.Result, error) {
	if err := writeManifest(c.Dir, map[string]any{
		"name":    filepath.Base(c.Dir),
		"version": "1.0.0",
		"main":    "index.js",
		"license": "MIT",
	}); err != nil {
		return fail(1, "error %v", err)
	}
	return &system.Result{Stdout: "success Saved package.json\n"}, nil
}

// workspacesInfo lists the members of the nearest workspace root at or
// above the working directory, or exits 1 when there is none.
func (tc *Toolchain) workspacesInfo(c system.Command) (*system.Result, error) {
	root, pkg := findWorkspace(c.Dir)
	if pkg == nil {
		return fail(1, "error Cannot find the root of your workspace - are you sure you're currently in a workspace?")
	}

	info := manifest.WorkspacesInfo{}
	for _, glob := range pkg.Workspaces {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(glob)))
		if err != nil {
			return fail(1, "error invalid workspace glob %q", glob)
		}
		for _, dir := range matches {
			member, err := manifest.Read(dir)
			if err != nil || member.Name == "" {
				continue
			}
			rel, _ := filepath.Rel(root, dir)
			info[member.Name] = manifest.WorkspaceEntry{Location: filepath.ToSlash(rel)}
		}
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fail(1, "error %v", err)
	}
	return &system.Result{Stdout: string(data)}, nil
}

func findWorkspace(dir string) (string, *manifest.Package) {
	for {
		if pkg, err := manifest.Read(dir); err == nil && pkg.IsWorkspaceRoot() {
			return dir, pkg
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (tc *Toolchain) yarnAdd(c system.Command) (*system.Result, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	args := c.Args[1:]
	section := "dependencies"
	if len(args) > 0 && args[0] == "--dev" {
		section = "devDependencies"
		args = args[1:]
	}
	if len(args) != 1 {
		return fail(1, "error unexpected arguments %v", args)
	}

	name, version, err := resolveSpec(c.Dir, args[0])
	if err != nil {
		return fail(1, "error %v", err)
	}

	obj, err := readManifest(c.Dir)
	if err != nil {
		return fail(1, "error %v", err)
	}
	deps, _ := obj[section].(map[string]any)
	if deps == nil {
		deps = map[string]any{}
	}
	deps[name] = version
	obj[section] = deps

	if err := writeManifest(c.Dir, obj); err != nil {
		return fail(1, "error %v", err)
	}
	return &system.Result{Stdout: "success Saved 1 new dependency.\n"}, nil
}

// resolveSpec turns "name@version" or "link:path" into a manifest entry.
func resolveSpec(dir, spec string) (string, string, error) {
	if target, ok := strings.CutPrefix(spec, "link:"); ok {
		pkg, err := manifest.Read(filepath.Join(dir, filepath.FromSlash(target)))
		if err != nil {
			return "", "", fmt.Errorf("package not found at %s", target)
		}
		return pkg.Name, spec, nil
	}

	at := strings.LastIndex(spec, "@")
	if at <= 0 {
		return spec, "^1.0.0", nil
	}
	name, version := spec[:at], spec[at+1:]
	if version == "latest" {
		version = "1.0.0"
	}
	return name, "^" + strings.TrimLeft(version, "^~"), nil
}

// generate imitates `npx ember-cli@<version> new|addon <name> --skip-git
// --yarn --directory <path>`.
func (tc *Toolchain) generate(c system.Command) (*system.Result, error) {
	if len(c.Args) < 3 {
		return fail(1, "error unexpected arguments %v", c.Args)
	}

	pkgSpec, kind, name := c.Args[0], c.Args[1], c.Args[2]
	version, ok := strings.CutPrefix(pkgSpec, "ember-cli@")
	if !ok {
		return fail(127, "npm ERR! could not determine executable to run")
	}
	if version == "latest" {
		version = LatestEmberCLI
	}

	i := slices.Index(c.Args, "--directory")
	if i < 0 || i+1 >= len(c.Args) {
		return fail(1, "missing --directory")
	}
	target := c.Args[i+1]

	if _, err := os.Stat(target); err == nil {
		return fail(1, "Directory '%s' already exists.", filepath.Base(target))
	}

	dirs := []string{"app", "config", "tests"}
	obj := map[string]any{
		"name":    name,
		"version": "0.0.0",
		"devDependencies": map[string]any{
			"ember-cli":    "~" + strings.TrimLeft(version, "^~"),
			"ember-source": "~" + strings.TrimLeft(version, "^~"),
		},
	}
	switch kind {
	case "new":
		obj["private"] = true
	case "addon":
		obj["keywords"] = []string{"ember-addon"}
		dirs = append(dirs, "addon")
	default:
		return fail(1, "The specified command %s is invalid.", kind)
	}

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(target, d), 0755); err != nil {
			return fail(1, "error %v", err)
		}
	}
	if err := writeManifest(target, obj); err != nil {
		return fail(1, "error %v", err)
	}
	return &system.Result{Stdout: "Installed packages for tooling via yarn.\n"}, nil
}

// ReadManifest parses dir/package.json or fails the test.
func ReadManifest(t *testing.T, dir string) *manifest.Package {
	t.Helper()
	pkg, err := manifest.Read(dir)
	if err != nil {
		t.Fatalf("failed to read manifest in %s: %v", dir, err)
	}
	return pkg
}
