package project

import (
	"context"
	"fmt"
	"os"
	"path"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

// AddDependency runs `yarn add name@version`. An empty version means latest.
func (p *Project) AddDependency(ctx context.Context, name, version string) (*system.Result, error) {
	return p.add(ctx, false, spec(name, version))
}

// AddDevDependency runs `yarn add --dev name@version`.
func (p *Project) AddDevDependency(ctx context.Context, name, version string) (*system.Result, error) {
	return p.add(ctx, true, spec(name, version))
}

// AddOwnPackageAsDependency links a package under test into the project
// as a runtime dependency.
func (p *Project) AddOwnPackageAsDependency(ctx context.Context, name string) (*system.Result, error) {
	link, err := p.ownPackageLink(name)
	if err != nil {
		return nil, err
	}
	return p.add(ctx, false, link)
}

// AddOwnPackageAsDevDependency links a package under test into the project
// as a development dependency.
func (p *Project) AddOwnPackageAsDevDependency(ctx context.Context, name string) (*system.Result, error) {
	link, err := p.ownPackageLink(name)
	if err != nil {
		return nil, err
	}
	return p.add(ctx, true, link)
}

func spec(name, version string) string {
	if version == "" {
		version = DefaultVersion
	}
	return name + "@" + version
}

func (p *Project) add(ctx context.Context, dev bool, spec string) (*system.Result, error) {
	args := []string{"add"}
	if dev {
		args = append(args, "--dev")
	}
	return p.RunCommand(ctx, p.cfg.PackageManager, append(args, spec)...)
}

// ownPackageLink returns the link: specifier of a package under test,
// relative to the project directory.
func (p *Project) ownPackageLink(name string) (string, error) {
	dir := workspace.PackageUnderTest{Name: name}.DirName()
	if dir == "." || dir == "/" || dir == ".." {
		return "", errors.ConfigError(fmt.Sprintf("invalid package name %q", name), nil)
	}

	full, err := securejoin.SecureJoin(p.workspaceRoot, path.Join(workspace.PackagesUnderTestDir, dir))
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		return "", errors.ConfigError(fmt.Sprintf("%s is not a package under test", name), err)
	}

	return "link:" + path.Join("..", "..", workspace.PackagesUnderTestDir, dir), nil
}
