// Package testutil provides fixture projects and a fake yarn/ember
// toolchain for tests.
//
// # Fixtures
//
// Two project fixtures are embedded using go:embed and materialized into a
// fresh directory per test:
//
//	fixtures/npm-package      single package named "npm-package"
//	fixtures/yarn-workspace   yarn workspace with members foo and bar
//
// Both helpers add .git and node_modules directories at runtime, so tests
// can check that they are never copied into a workspace:
//
//	root := testutil.NPMPackage(t)
//	root := testutil.YarnWorkspace(t)
//
// # Fake Toolchain
//
// NewToolchain returns a system.MockExecutor whose handlers imitate the
// yarn and ember-cli commands the harness issues, including their effects
// on package.json:
//
//	exec := testutil.NewToolchain(t)
//	p, err := project.New(ctx, project.WithExecutor(exec), ...)
package testutil
