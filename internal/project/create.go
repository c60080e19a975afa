package project

import (
	"context"
	"fmt"
	"os"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
)

// Kind selects what the generator creates.
type Kind string

const (
	KindApp   Kind = "app"
	KindAddon Kind = "addon"
)

// generatorCommand is the ember-cli command creating a project of kind k.
func (k Kind) generatorCommand() string {
	if k == KindAddon {
		return "addon"
	}
	return "new"
}

// DefaultVersion is the generator version used when none is requested.
const DefaultVersion = "latest"

// CreateOptions configure project creation.
type CreateOptions struct {
	// Version pins ember-cli, e.g. "3.20.0" or "~3.16.0". Empty means latest.
	Version string
}

// CreateEmberApp replaces the project with a freshly generated Ember app.
func (p *Project) CreateEmberApp(ctx context.Context, opts CreateOptions) (*system.Result, error) {
	return p.installFrameworkProject(ctx, KindApp, opts.Version)
}

// CreateEmberAddon replaces the project with a freshly generated Ember addon.
func (p *Project) CreateEmberAddon(ctx context.Context, opts CreateOptions) (*system.Result, error) {
	return p.installFrameworkProject(ctx, KindAddon, opts.Version)
}

// installFrameworkProject deletes the project directory and lets the
// generator recreate it; ember-cli refuses to generate into an existing
// directory. If generation fails the directory stays absent.
func (p *Project) installFrameworkProject(ctx context.Context, kind Kind, version string) (*system.Result, error) {
	if version == "" {
		version = DefaultVersion
	}

	if state := p.ServerState(); state != ServerAbsent {
		return nil, errors.InvalidState(fmt.Sprintf("cannot create ember %s while the development server is %s", kind, state))
	}

	logging.Debug("creating ember project", "kind", kind, "version", version, "path", p.path)

	if err := os.RemoveAll(p.path); err != nil {
		return nil, err
	}

	// Run outside the workspace: ember-cli prefers a workspace-local install
	// of itself over the requested version.
	result, err := p.runner.Run(ctx, p.cfg.GeneratorWorkingDir(), p.cfg.PackageRunner,
		p.cfg.GeneratorPackage+"@"+version,
		kind.generatorCommand(),
		p.Name(),
		"--skip-git",
		"--yarn",
		"--directory", p.path,
	)
	if err != nil {
		return result, errors.Annotate(err, fmt.Sprintf("creating ember %s failed", kind))
	}

	logging.Debug("created ember project", "kind", kind, "path", p.path)
	return result, nil
}
