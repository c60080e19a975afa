package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/app"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/health"
	"github.com/firefly-engineering/ember-addon-tests/internal/port"
	"github.com/firefly-engineering/ember-addon-tests/internal/project"
)

// liveReloadBase is where live reload ports are searched from.
const liveReloadBase = 7020

var (
	benchFlags      generateFlags
	benchIterations int
	benchServe      bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time project creation",
	Long: `Create and generate a test project repeatedly and report how long each
run took. The first run includes building the workspace. With --serve each
run also starts and stops the development server.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	benchFlags.register(benchCmd)
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 3, "Number of runs")
	benchCmd.Flags().BoolVar(&benchServe, "serve", false, "Also start and stop the development server")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchIterations < 1 {
		return errors.ConfigError("--iterations must be at least 1", nil)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	root, err := projectRoot(ctx)
	if err != nil {
		return err
	}

	durations := make([]time.Duration, 0, benchIterations)
	for i := 1; i <= benchIterations; i++ {
		d, err := benchOnce(ctx, root)
		if err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
		durations = append(durations, d)
		fmt.Fprintf(out, "Run %d: %s\n", i, health.FormatDuration(d))
	}

	lo, avg, hi := summarize(durations)
	fmt.Fprintf(out, "min %s  avg %s  max %s\n",
		health.FormatDuration(lo), health.FormatDuration(avg), health.FormatDuration(hi))
	return nil
}

func benchOnce(ctx context.Context, root string) (time.Duration, error) {
	a := app.Default
	start := time.Now()

	p, err := a.NewProject(ctx, root)
	if err != nil {
		return 0, err
	}

	opts := project.CreateOptions{Version: benchFlags.version}
	if benchFlags.addon {
		_, err = p.CreateEmberAddon(ctx, opts)
	} else {
		_, err = p.CreateEmberApp(ctx, opts)
	}
	if err != nil {
		return 0, err
	}

	if benchServe {
		serverPort, err := port.Allocate(a.Config.ServerPort, a.Config.ServerPort+100)
		if err != nil {
			return 0, err
		}
		liveReload, err := port.Allocate(liveReloadBase, liveReloadBase+100, serverPort)
		if err != nil {
			return 0, err
		}

		if err := p.StartEmberServer(ctx, project.ServeOptions{"port": serverPort, "liveReloadPort": liveReload}); err != nil {
			return 0, err
		}
		if err := p.StopEmberServer(context.WithoutCancel(ctx)); err != nil {
			return 0, err
		}
	}

	return time.Since(start), nil
}

// summarize returns the minimum, mean and maximum of durations, which must
// not be empty.
func summarize(durations []time.Duration) (lo, avg, hi time.Duration) {
	lo, hi = durations[0], durations[0]
	var total time.Duration
	for _, d := range durations {
		lo = min(lo, d)
		hi = max(hi, d)
		total += d
	}
	return lo, total / time.Duration(len(durations)), hi
}
