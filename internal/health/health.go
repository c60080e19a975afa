package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Status represents the health of a development server.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusStopped   Status = "stopped"

	// DefaultTimeout bounds a single probe when ctx has no deadline.
	DefaultTimeout = 10 * time.Second
)

// Result describes one probe.
type Result struct {
	URL        string
	Status     Status
	StatusCode int
	Elapsed    time.Duration
}

// Client is the HTTP client used by Probe.
var Client = &http.Client{}

// Probe issues a GET against url. Any 2xx or 3xx response is healthy. Transport
// errors are returned; a bad status yields StatusUnhealthy and no error.
func Probe(ctx context.Context, url string) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res := &Result{
		URL:        url,
		Status:     StatusUnhealthy,
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		res.Status = StatusHealthy
	}
	return res, nil
}

// FormatDuration renders d compactly: milliseconds below a second, then
// seconds, minutes and hours.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
