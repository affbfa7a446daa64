package cache

import (
	"time"
)

// Config represents cache configuration settings
type Config struct {
	// Enabled determines if caching is enabled
	Enabled bool

	// TickerTTL is the time-to-live for cached tickers. Contract
	// conversions tolerate a slightly stale last price, so this does
	// not need to be aggressive.
	TickerTTL time.Duration

	// MaxCacheSize is the maximum number of entries (0 = unlimited)
	MaxCacheSize int

	// CleanupInterval is how often expired entries are swept
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		TickerTTL:       time.Minute,
		MaxCacheSize:    1000,
		CleanupInterval: time.Minute,
	}
}
