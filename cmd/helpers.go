package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/app"
	"github.com/firefly-engineering/ember-addon-tests/internal/audit"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/project"
	"github.com/firefly-engineering/ember-addon-tests/internal/tui"
	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
)

// projectRoot returns --root, or the project found by walking up from the
// current directory.
func projectRoot(ctx context.Context) (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	a := app.Default
	cfg := *a.Config
	if cfg.SearchFrom == "" {
		cfg.SearchFrom = "."
	}
	return workspace.NewInitializer(&cfg, a.Executor).FindProjectRoot(ctx)
}

// record appends an event to the project's log. Failing to record never
// fails the command.
func record(p *project.Project, eventType audit.EventType, details string) {
	if err := audit.NewLogger(p.WorkspaceRoot()).LogEvent(eventType, p.Name(), details); err != nil {
		logging.Debug("failed to record event", "project", p.Name(), "type", eventType, "error", err)
	}
}

// recordErr records err, if any, as an error event and returns it.
func recordErr(p *project.Project, err error) error {
	if err != nil {
		record(p, audit.EventError, err.Error())
	}
	return err
}

// generateFlags are shared by the commands that create a project.
type generateFlags struct {
	addon    bool
	empty    bool
	version  string
	links    []string
	devLinks []string
}

func (g *generateFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&g.addon, "addon", false, "Generate an addon instead of an app")
	cmd.Flags().StringVar(&g.version, "ember-version", project.DefaultVersion, "ember-cli version used to generate the project")
	cmd.Flags().StringSliceVar(&g.links, "link", nil, "Package under test to add as a dependency (repeatable)")
	cmd.Flags().StringSliceVar(&g.devLinks, "link-dev", nil, "Package under test to add as a dev dependency (repeatable)")
}

func (g *generateFlags) kind() project.Kind {
	if g.addon {
		return project.KindAddon
	}
	return project.KindApp
}

// createProject builds a project in the shared workspace, generates it
// unless empty is set and links the requested packages.
func createProject(cmd *cobra.Command, g *generateFlags) (*project.Project, error) {
	ctx := cmd.Context()
	out := cmd.ErrOrStderr()

	root, err := projectRoot(ctx)
	if err != nil {
		return nil, err
	}

	var p *project.Project
	err = tui.RunWithSpinner(ctx, out, "Preparing workspace", func(ctx context.Context) error {
		var err error
		p, err = app.Default.NewProject(ctx, root)
		return err
	})
	if err != nil {
		return nil, err
	}
	record(p, audit.EventCreate, root)

	if !g.empty {
		title := fmt.Sprintf("Creating ember %s with ember-cli@%s", g.kind(), g.version)
		err = tui.RunWithSpinner(ctx, out, title, func(ctx context.Context) error {
			opts := project.CreateOptions{Version: g.version}
			var err error
			if g.addon {
				_, err = p.CreateEmberAddon(ctx, opts)
			} else {
				_, err = p.CreateEmberApp(ctx, opts)
			}
			return err
		})
		if err := recordErr(p, err); err != nil {
			return nil, err
		}
		record(p, audit.EventGenerate, fmt.Sprintf("%s ember-cli@%s", g.kind(), g.version))
	}

	for _, name := range g.links {
		err := tui.RunWithSpinner(ctx, out, "Linking "+name, func(ctx context.Context) error {
			_, err := p.AddOwnPackageAsDependency(ctx, name)
			return err
		})
		if err := recordErr(p, err); err != nil {
			return nil, err
		}
		record(p, audit.EventLink, name)
	}
	for _, name := range g.devLinks {
		err := tui.RunWithSpinner(ctx, out, "Linking "+name+" as dev dependency", func(ctx context.Context) error {
			_, err := p.AddOwnPackageAsDevDependency(ctx, name)
			return err
		})
		if err := recordErr(p, err); err != nil {
			return nil, err
		}
		record(p, audit.EventLink, name+" (dev)")
	}

	return p, nil
}
