package project

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/system"
)

// ServerState is the lifecycle state of a project's development server.
type ServerState int

const (
	ServerAbsent ServerState = iota
	ServerStarting
	ServerRunning
)

func (s ServerState) String() string {
	switch s {
	case ServerStarting:
		return "starting"
	case ServerRunning:
		return "running"
	default:
		return "absent"
	}
}

// ServeOptions are extra `ember serve` flags. Keys may be camelCase,
// snake_case or kebab-case and are passed as --kebab-case; values are
// formatted with fmt.Sprint.
type ServeOptions map[string]any

// args returns the serve arguments in sorted flag order.
func (o ServeOptions) args() []string {
	args := []string{"serve"}
	for _, key := range slices.Sorted(maps.Keys(o)) {
		args = append(args, "--"+flagName(key), fmt.Sprint(o[key]))
	}
	return args
}

func flagName(key string) string {
	return strcase.ToKebab(strings.TrimLeft(key, "-"))
}

// port returns the port requested through o, if any.
func (o ServeOptions) port() (int, bool) {
	for key, v := range o {
		if flagName(key) != "port" {
			continue
		}
		port, err := strconv.Atoi(fmt.Sprint(v))
		return port, err == nil
	}
	return 0, false
}

// ServerState returns the current state of the development server.
func (p *Project) ServerState() ServerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ServerURL returns the address the development server listens on.
func (p *Project) ServerURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/", p.serverPort)
}

// StartEmberServer spawns `ember serve` in the project directory and waits
// until its output contains one of the configured readiness indicators.
// It fails if the process exits first. There is no internal timeout; when
// ctx is done the process is terminated and ctx's error is returned. Once
// started the server outlives ctx until StopEmberServer.
func (p *Project) StartEmberServer(ctx context.Context, opts ServeOptions) error {
	p.mu.Lock()
	if p.state != ServerAbsent {
		state := p.state
		p.mu.Unlock()
		return errors.InvalidState(fmt.Sprintf("tried to start ember development server but another instance is already %s", state))
	}
	p.state = ServerStarting
	p.mu.Unlock()

	logging.Debug("starting ember development server", "path", p.path)

	args := opts.args()
	proc, err := p.runner.Start(context.WithoutCancel(ctx), p.path, p.cfg.EmberBinary, args...)
	if err != nil {
		p.clearServer()
		return errors.Annotate(err, "starting ember development server failed")
	}

	ready := make(chan string, 1)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		watchOutput(proc.Stdout(), p.cfg.ReadinessIndicators, ready)
	}()

	select {
	case indicator := <-ready:
		logging.Debug("detected start of ember development server", "indicator", indicator)
	case <-proc.Done():
		// Output written just before exit may still be in flight.
		<-watched
		select {
		case indicator := <-ready:
			logging.Debug("detected start of ember development server", "indicator", indicator)
		default:
			waitErr := proc.Wait()
			p.clearServer()
			line := system.Command{Name: p.cfg.EmberBinary, Args: args}.String()
			return errors.ProcessFailed(line, p.path, exitStatus(waitErr), "", proc.Stderr(), waitErr).
				WithContext("starting ember development server failed")
		}
	case <-ctx.Done():
		_ = proc.Terminate()
		<-proc.Done()
		p.clearServer()
		return ctx.Err()
	}

	port, ok := opts.port()
	if !ok {
		port = p.cfg.ServerPort
	}

	p.mu.Lock()
	p.state = ServerRunning
	p.server = proc
	p.serverPort = port
	p.mu.Unlock()

	logging.Debug("started ember development server", "path", p.path, "port", port)
	return nil
}

// StopEmberServer terminates the development server and waits for it to
// exit. A server that crashed on its own is reported as a process error.
// When ctx ends before the process exits, the server stays registered as
// running so StopEmberServer can be called again.
func (p *Project) StopEmberServer(ctx context.Context) error {
	p.mu.Lock()
	proc := p.server
	switch {
	case p.state == ServerAbsent:
		p.mu.Unlock()
		return errors.InvalidState("tried to stop ember development server but no instance was running")
	case p.state == ServerStarting:
		p.mu.Unlock()
		return errors.InvalidState("tried to stop ember development server while it is still starting")
	case proc == nil:
		p.mu.Unlock()
		return errors.InvalidState("ember development server is already being stopped")
	}
	p.server = nil
	terminating := p.terminating
	p.terminating = true
	p.mu.Unlock()

	logging.Debug("stopping ember development server", "path", p.path)

	var crashed bool
	select {
	case <-proc.Done():
		crashed = !terminating
	default:
		if err := proc.Terminate(); err != nil {
			logging.Debug("failed to signal ember development server", "error", err)
		}
	}

	select {
	case <-proc.Done():
	case <-ctx.Done():
		logging.Debug("gave up waiting for ember development server to exit", "path", p.path)
		p.mu.Lock()
		p.server = proc
		p.mu.Unlock()
		return ctx.Err()
	}

	waitErr := proc.Wait()
	p.clearServer()

	if crashed && waitErr != nil {
		line := system.Command{Name: p.cfg.EmberBinary, Args: []string{"serve"}}.String()
		return errors.ProcessFailed(line, p.path, exitStatus(waitErr), "", proc.Stderr(), waitErr).
			WithContext("ember development server exited unexpectedly")
	}

	logging.Debug("stopped ember development server", "path", p.path)
	return nil
}

func (p *Project) clearServer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = ServerAbsent
	p.server = nil
	p.terminating = false
}

// watchOutput reports the first indicator found on r to ready and keeps
// draining r until EOF so the server never blocks on a full pipe.
func watchOutput(r io.Reader, indicators []string, ready chan<- string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	signalled := false
	for scanner.Scan() {
		line := scanner.Text()
		logging.Debug("ember server output", "line", line)
		if signalled {
			continue
		}
		for _, indicator := range indicators {
			if strings.Contains(line, indicator) {
				ready <- indicator
				signalled = true
				break
			}
		}
	}

	if err := scanner.Err(); err != nil {
		logging.Debug("ember server output unreadable", "error", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}
