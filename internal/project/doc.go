// Package project is the entry point for tests: a Project is an ephemeral
// package directory inside a shared scratch workspace, with operations to
// generate Ember apps and addons, run commands, edit files, add
// dependencies and run the development server.
//
// # Creating Projects
//
//	reg := workspace.NewRegistry(workspace.NewInitializer(cfg, nil))
//	p, err := project.New(ctx,
//	    project.WithRegistry(reg),
//	    project.WithConfig(cfg),
//	    project.WithProjectRoot("testdata/my-addon"),
//	)
//
// Projects built with the same Registry and equal options share one
// workspace, so the packages under test are copied and installed once.
//
// # Generating
//
// CreateEmberApp and CreateEmberAddon delete the project directory and let
// `npx ember-cli@<version>` recreate it. If the generator fails, the
// directory stays absent.
//
// # Development Server
//
// The server moves through Absent, Starting and Running:
//
//	if err := p.StartEmberServer(ctx, project.ServeOptions{"port": 4201}); err != nil {
//	    ...
//	}
//	defer p.StopEmberServer(context.Background())
//
// Starting a second server or stopping an absent one returns a state
// error without side effects.
package project
