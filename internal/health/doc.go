// Package health checks that a started development server answers HTTP
// requests.
//
// A readiness indicator on ember's output means the build finished; Probe
// confirms the server actually responds:
//
//	res, err := health.Probe(ctx, p.ServerURL())
//	if err == nil && res.Status == health.StatusHealthy {
//	    fmt.Println("answered in", health.FormatDuration(res.Elapsed))
//	}
//
// FormatDuration is shared with the benchmark command.
package health
