package workspace

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/firefly-engineering/ember-addon-tests/internal/config"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/manifest"
	"github.com/firefly-engineering/ember-addon-tests/internal/runner"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
)

const (
	// PackagesUnderTestDir holds one copy per package under test.
	PackagesUnderTestDir = "packages-under-test"

	// TestProjectsDir holds one directory per test project.
	TestProjectsDir = "test-projects"

	dirPrefix = "ember-addon-tests-"
)

// Globs are the workspace globs written into every workspace manifest.
var Globs = []string{PackagesUnderTestDir + "/*", TestProjectsDir + "/*"}

// PackageUnderTest is a source package copied into a workspace.
type PackageUnderTest struct {
	Name     string
	Location string
}

// DirName is the directory the package is copied to inside
// packages-under-test. Scoped names keep only their last segment.
func (p PackageUnderTest) DirName() string {
	return path.Base(p.Name)
}

// Initializer creates workspaces.
type Initializer struct {
	cfg    *config.Config
	runner *runner.Runner
}

// NewInitializer creates an Initializer. A nil executor selects
// system.DefaultExecutor().
func NewInitializer(cfg *config.Config, exec system.CommandExecutor) *Initializer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Initializer{cfg: cfg, runner: runner.New(exec)}
}

// Initialize creates a new workspace for the packages found at projectRoot
// (auto-detected when empty), installs their dependencies and returns the
// workspace root. No partially built workspace is ever returned.
func (i *Initializer) Initialize(ctx context.Context, projectRoot string) (string, error) {
	logging.Debug("initializing workspace", "projectRoot", projectRoot)

	root, err := os.MkdirTemp(i.cfg.WorkspaceTempDir(), dirPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to create workspace directory: %w", err)
	}
	logging.Debug("created workspace directory", "path", root)

	if err := manifest.WriteWorkspaceManifest(root, Globs); err != nil {
		return "", fmt.Errorf("failed to write workspace manifest: %w", err)
	}
	for _, dir := range []string{PackagesUnderTestDir, TestProjectsDir} {
		if err := os.Mkdir(filepath.Join(root, dir), 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	packages, err := i.PackagesUnderTest(ctx, projectRoot)
	if err != nil {
		return "", err
	}

	if err := i.copyPackages(ctx, root, packages); err != nil {
		return "", err
	}

	logging.Debug("installing dependencies of packages under test", "workspace", root)
	if _, err := i.runner.Run(ctx, root, i.cfg.PackageManager, "install"); err != nil {
		return "", errors.Annotate(err, "installing dependencies of packages under test failed")
	}

	logging.Debug("initialized workspace", "path", root, "packages", len(packages))
	return root, nil
}

func (i *Initializer) copyPackages(ctx context.Context, root string, packages []PackageUnderTest) error {
	seen := make(map[string]string, len(packages))
	for _, pkg := range packages {
		if other, ok := seen[pkg.DirName()]; ok {
			return errors.ConfigError(fmt.Sprintf("packages %s and %s would both be copied to %s/%s",
				other, pkg.Name, PackagesUnderTestDir, pkg.DirName()), nil)
		}
		seen[pkg.DirName()] = pkg.Name
	}

	g, _ := errgroup.WithContext(ctx)
	for _, pkg := range packages {
		dst := filepath.Join(root, PackagesUnderTestDir, pkg.DirName())
		g.Go(func() error {
			logging.Debug("copying package under test", "name", pkg.Name, "from", pkg.Location, "to", dst)
			if err := copyTree(pkg.Location, dst, i.cfg.IsExcluded); err != nil {
				return fmt.Errorf("failed to copy package %s: %w", pkg.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// PackagesUnderTest resolves the packages found at projectRoot, detecting
// the root when it is empty. Packages are returned sorted by name.
func (i *Initializer) PackagesUnderTest(ctx context.Context, projectRoot string) ([]PackageUnderTest, error) {
	if projectRoot == "" {
		detected, err := i.FindProjectRoot(ctx)
		if err != nil {
			return nil, err
		}
		projectRoot = detected
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("unable to resolve project root %s", projectRoot), err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, errors.ConfigError(fmt.Sprintf("project root %s is not a directory", root), err)
	}

	logging.Debug("identifying packages under test", "root", root)

	if info, ok, err := i.listWorkspaces(ctx, root); err != nil {
		return nil, err
	} else if ok {
		if len(info) == 0 {
			return nil, errors.ConfigError(fmt.Sprintf("yarn workspace at %s has no members", root), nil)
		}
		packages := make([]PackageUnderTest, 0, len(info))
		for _, name := range info.Names() {
			packages = append(packages, PackageUnderTest{
				Name:     name,
				Location: filepath.Join(root, filepath.FromSlash(info[name].Location)),
			})
		}
		return packages, nil
	}

	pkg, err := manifest.Read(root)
	if err != nil {
		return nil, err
	}
	if pkg.Name == "" {
		return nil, errors.ConfigError(fmt.Sprintf("missing name in %s", filepath.Join(root, manifest.FileName)), nil)
	}
	return []PackageUnderTest{{Name: pkg.Name, Location: root}}, nil
}

// listWorkspaces probes dir with `yarn --silent workspaces info`. A
// non-zero exit means dir is not a yarn workspace and is not an error.
func (i *Initializer) listWorkspaces(ctx context.Context, dir string) (manifest.WorkspacesInfo, bool, error) {
	ok, result := i.runner.Probe(ctx, dir, i.cfg.PackageManager, "--silent", "workspaces", "info")
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !ok {
		logging.Debug("project does not use yarn workspaces", "dir", dir)
		return nil, false, nil
	}

	info, err := manifest.ParseWorkspacesInfo([]byte(result.Stdout))
	if err != nil {
		return nil, false, errors.ConfigError(fmt.Sprintf("unreadable workspace listing for %s", dir), err)
	}
	logging.Debug("project uses yarn workspaces", "dir", dir, "members", len(info))
	return info, true, nil
}
