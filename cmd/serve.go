package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/ember-addon-tests/internal/app"
	"github.com/firefly-engineering/ember-addon-tests/internal/audit"
	"github.com/firefly-engineering/ember-addon-tests/internal/health"
	"github.com/firefly-engineering/ember-addon-tests/internal/monitor"
	"github.com/firefly-engineering/ember-addon-tests/internal/port"
	"github.com/firefly-engineering/ember-addon-tests/internal/project"
	"github.com/firefly-engineering/ember-addon-tests/internal/tui"
)

var (
	serveFlags          generateFlags
	servePort           int
	serveLiveReloadPort int
	serveDuration       time.Duration
	serveNoProbe        bool
	serveMonitor        time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Create a test project and run its development server",
	Long: `Create a test project, start ember serve in it and wait until the
build succeeded. The server runs until interrupted, or for --duration.

The ports are checked before anything is generated, so a port that is
already bound fails immediately with exit code 5.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to serve on (default from config)")
	serveCmd.Flags().IntVar(&serveLiveReloadPort, "live-reload-port", 0, "Live reload port (default chosen by ember)")
	serveCmd.Flags().DurationVar(&serveDuration, "duration", 0, "Stop the server after this long (default: until interrupted)")
	serveCmd.Flags().BoolVar(&serveNoProbe, "no-probe", false, "Skip the HTTP check after the server started")
	serveCmd.Flags().DurationVar(&serveMonitor, "monitor", 0, "Probe the server at this interval while serving (default: off)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := project.ServeOptions{}
	p := servePort
	if p == 0 {
		p = app.Default.Config.ServerPort
	}
	if err := port.Check(p); err != nil {
		return err
	}
	opts["port"] = p
	if serveLiveReloadPort != 0 {
		if err := port.Check(serveLiveReloadPort); err != nil {
			return err
		}
		opts["liveReloadPort"] = serveLiveReloadPort
	}

	proj, err := createProject(cmd, &serveFlags)
	if err != nil {
		return err
	}

	err = tui.RunWithSpinner(ctx, cmd.ErrOrStderr(), "Starting ember development server", func(ctx context.Context) error {
		return proj.StartEmberServer(ctx, opts)
	})
	if err := recordErr(proj, err); err != nil {
		return err
	}
	record(proj, audit.EventStart, proj.ServerURL())
	logSuccess("Serving %s at %s", proj.Path(), proj.ServerURL())

	if !serveNoProbe {
		probe(ctx, proj.ServerURL())
	}

	serveCtx, cancel := context.WithCancel(ctx)
	var monitored sync.WaitGroup
	if serveMonitor > 0 {
		m := monitor.New(serveMonitor, proj,
			monitor.WithAuditLogger(audit.NewLogger(proj.WorkspaceRoot())),
			monitor.WithNotify(reportHealth),
		)
		monitored.Add(1)
		go func() {
			defer monitored.Done()
			_ = m.Run(serveCtx)
		}()
	}

	wait(serveCtx, serveDuration)
	cancel()
	monitored.Wait()

	logInfo("Stopping ember development server")
	if err := recordErr(proj, proj.StopEmberServer(context.WithoutCancel(ctx))); err != nil {
		return err
	}
	record(proj, audit.EventStop, "")
	return nil
}

func reportHealth(r monitor.CheckResult) {
	switch r.Status {
	case health.StatusHealthy:
		logInfo("Server is healthy (%s)", health.FormatDuration(r.Elapsed))
	case health.StatusStopped:
		logWarning("Server is no longer running")
	default:
		if r.Err != nil {
			logWarning("Server is unhealthy: %v", r.Err)
		} else {
			logWarning("Server is unhealthy: status %d", r.StatusCode)
		}
	}
}

func probe(ctx context.Context, url string) {
	res, err := health.Probe(ctx, url)
	switch {
	case err != nil:
		logWarning("Server did not answer: %v", err)
	case res.Status != health.StatusHealthy:
		logWarning("Server answered %d after %s", res.StatusCode, health.FormatDuration(res.Elapsed))
	default:
		logInfo("Server answered %d after %s", res.StatusCode, health.FormatDuration(res.Elapsed))
	}
}

// wait blocks until ctx is done or d elapsed. A zero d waits for ctx only.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		<-ctx.Done()
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
