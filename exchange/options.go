package exchange

import (
	"time"

	metrics "github.com/evdnx/gotrademetrics"
)

// Options tunes client construction. Zero values fall back to the
// per-exchange defaults, so Options{} behaves like the plain constructors.
type Options struct {
	// HTTPTimeout caps each request; zero uses the exchange default.
	HTTPTimeout time.Duration
	// MaxRetries bounds transparent retries; values below one use the
	// default retry budget.
	MaxRetries int
	// Metrics is optional; clients run without instrumentation when nil.
	Metrics *metrics.Metrics
}

func (o Options) timeoutOr(fallback time.Duration) time.Duration {
	if o.HTTPTimeout > 0 {
		return o.HTTPTimeout
	}
	return fallback
}

func (o Options) retries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return defaultMaxRetries
}
