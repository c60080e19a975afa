package cmd

import (
	"fmt"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/audit"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
)

var runFlags generateFlags

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a command inside a fresh test project",
	Long: `Create a test project and run a command in its directory.

A single argument is split like a shell would, so quoting works:
  ember-addon-tests run "ember test --filter 'my component'"

Several arguments are passed as is:
  ember-addon-tests run -- ember build --environment production`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().BoolVar(&runFlags.empty, "empty", false, "Only run yarn init, do not generate")
	rootCmd.AddCommand(runCmd)
}

// commandArgs turns the run arguments into an argv.
func commandArgs(args []string) ([]string, error) {
	if len(args) != 1 {
		return args, nil
	}
	argv, err := shellquote.Split(args[0])
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("cannot parse command %q", args[0]), err)
	}
	if len(argv) == 0 {
		return nil, errors.ConfigError("empty command", nil)
	}
	return argv, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	argv, err := commandArgs(args)
	if err != nil {
		return err
	}

	p, err := createProject(cmd, &runFlags)
	if err != nil {
		return err
	}

	line := shellquote.Join(argv...)
	logInfo("Running %s in %s", line, p.Path())
	record(p, audit.EventExec, line)
	result, err := p.RunCommand(cmd.Context(), argv[0], argv[1:]...)
	if result != nil {
		fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
		fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
	}
	return recordErr(p, err)
}
