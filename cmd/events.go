package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/audit"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/workspace"
)

var eventsCmd = &cobra.Command{
	Use:   "events <project-path>",
	Short: "Show what happened to a test project",
	Long: `Show the events recorded for a test project: creation, generation,
linked packages, commands, server starts and stops, health checks and
errors. The path is the one printed by new.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	projects := filepath.Dir(path)
	if filepath.Base(projects) != workspace.TestProjectsDir {
		return errors.ConfigError(fmt.Sprintf("%s is not a test project", args[0]), nil)
	}

	events, err := audit.NewLogger(filepath.Dir(projects)).Events(filepath.Base(path))
	if err != nil {
		return err
	}
	if len(events) == 0 {
		logInfo("No events recorded for %s", args[0])
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tDETAILS")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Format(time.TimeOnly), e.Type, e.Details)
	}
	return w.Flush()
}
