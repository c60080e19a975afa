// Package monitor periodically checks that a running development server
// still answers, recording each check in the project's event log.
package monitor

import (
	"context"
	"time"

	"github.com/firefly-engineering/ember-addon-tests/internal/audit"
	"github.com/firefly-engineering/ember-addon-tests/internal/health"
	"github.com/firefly-engineering/ember-addon-tests/internal/logging"
	"github.com/firefly-engineering/ember-addon-tests/internal/project"
)

// Server is the part of a project the monitor watches.
type Server interface {
	Name() string
	ServerState() project.ServerState
	ServerURL() string
}

// CheckResult holds the result of a single check.
type CheckResult struct {
	Project    string
	Status     health.Status
	StatusCode int
	Elapsed    time.Duration
	Err        error
}

// Monitor periodically probes a project's development server.
type Monitor struct {
	interval time.Duration
	server   Server
	auditLog *audit.Logger
	notify   func(CheckResult)
	last     health.Status
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAuditLogger sets the audit logger for recording health events.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithNotify calls fn whenever the status differs from the previous check.
func WithNotify(fn func(CheckResult)) Option {
	return func(m *Monitor) {
		m.notify = fn
	}
}

// New creates a new Monitor.
func New(interval time.Duration, server Server, opts ...Option) *Monitor {
	m := &Monitor{
		interval: interval,
		server:   server,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting server monitor", "project", m.server.Name(), "interval", m.interval)

	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("server monitor stopping", "project", m.server.Name())
			return ctx.Err()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check probes the server once. A server that is not running is reported
// as stopped without a request.
func (m *Monitor) check(ctx context.Context) CheckResult {
	result := CheckResult{Project: m.server.Name(), Status: health.StatusStopped}

	if m.server.ServerState() == project.ServerRunning {
		res, err := health.Probe(ctx, m.server.ServerURL())
		if ctx.Err() != nil {
			return result
		}
		switch {
		case err != nil:
			result.Status = health.StatusUnhealthy
			result.Err = err
		default:
			result.Status = res.Status
			result.StatusCode = res.StatusCode
			result.Elapsed = res.Elapsed
		}
	}

	if m.auditLog != nil {
		details := string(result.Status)
		if result.Err != nil {
			details += ": " + result.Err.Error()
		}
		if err := m.auditLog.LogEvent(audit.EventHealth, result.Project, details); err != nil {
			logging.Warn("failed to record health event", "project", result.Project, "error", err)
		}
	}

	if result.Status != m.last {
		m.last = result.Status
		if m.notify != nil {
			m.notify(result)
		}
	}

	return result
}
