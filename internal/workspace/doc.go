// Package workspace builds and caches the scratch yarn workspaces test
// projects live in.
//
// # Layout
//
// Every workspace is a fresh temporary directory:
//
//	<tmp>/ember-addon-tests-XXXX/
//	    package.json              {"private":true,"workspaces":[...]}
//	    packages-under-test/<n>/  copies of the packages being tested
//	    test-projects/<a...>/     one directory per test project
//
// # Packages Under Test
//
// When no project root is given, the root is detected by walking up from
// the configured search start. A root on which `yarn --silent workspaces
// info` succeeds is treated as a monorepo and all of its members are
// copied; otherwise the root's own package is copied. Top-level directories
// listed in config.ExcludeDirs are skipped.
//
// # Registry
//
// Registry maps workspace Options to an initialized root so that test
// projects with equal options share one workspace:
//
//	reg := workspace.NewRegistry(workspace.NewInitializer(cfg, nil))
//	root, err := reg.Resolve(ctx, workspace.Options{ProjectRoot: "fixtures/npm-package"})
//
// Concurrent Resolve calls for the same options wait for a single
// initialization. Failed initializations are not cached.
package workspace
