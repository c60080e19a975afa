// Package config provides the harness configuration for ember-addon-tests.
//
// # Defaults
//
// Default returns settings for yarn v1 and Ember CLI:
//
//	package_manager      = "yarn"
//	package_runner       = "npx"
//	ember_binary         = "ember"
//	generator_package    = "ember-cli"
//	harness_package_name = "ember-addon-tests"
//	exclude_dirs         = [".git", "node_modules"]
//	readiness_indicators = ["Ember FastBoot running at", "Build successful"]
//	server_port          = 4200
//
// # Overrides
//
// A TOML file named by EMBER_ADDON_TESTS_CONFIG (or passed to Load) is
// decoded on top of the defaults. Unknown keys are rejected:
//
//	temp_dir      = "/var/tmp"
//	generator_dir = "/home/ci"
//	exclude_dirs  = [".git", "node_modules", "dist"]
package config
