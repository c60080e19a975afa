package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/app"
	"github.com/firefly-engineering/ember-addon-tests/internal/config"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
	rootDir    string
)

var rootCmd = &cobra.Command{
	Use:   "ember-addon-tests",
	Short: "Scratch Ember projects for testing addons and apps",
	Long: `ember-addon-tests builds throwaway Ember projects around the packages
you are developing.

The packages under test are copied once into a scratch yarn workspace and
installed. Each test project lives in that workspace, so it can link the
packages under test without publishing them:
  - generate an app or addon with a pinned ember-cli version
  - add dependencies or link your own packages
  - run ember commands and package scripts
  - start and stop the development server`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)
		return loadConfig()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so running servers are stopped.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project whose packages are under test (default: detected from the current directory)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig replaces the default app when a config file is given, keeping
// its executor.
func loadConfig() error {
	path := configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	if path == "" {
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return errors.ConfigError("failed to load configuration", err)
	}
	app.SetDefault(app.New(app.WithConfig(cfg), app.WithExecutor(app.Default.Executor)))
	return nil
}
