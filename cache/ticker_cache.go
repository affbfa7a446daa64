package cache

import (
	"fmt"

	"github.com/evdnx/goxchange/currency"
	"github.com/evdnx/goxchange/models"
)

// TickerCache memoizes normalized tickers per exchange and pair. Its main
// consumer is the OKEx client, which needs a recent last price for every
// contract to crypto conversion without hammering the ticker endpoint.
type TickerCache struct {
	cache  *Cache
	config Config
}

// NewTickerCache creates a ticker cache with default configuration
func NewTickerCache() *TickerCache {
	return NewTickerCacheWithConfig(DefaultConfig())
}

// NewTickerCacheWithConfig creates a ticker cache with the given configuration
func NewTickerCacheWithConfig(config Config) *TickerCache {
	return &TickerCache{
		cache:  New(config),
		config: config,
	}
}

// Key generates the cache key for an exchange and pair
func (t *TickerCache) Key(exchange string, pair currency.Pair) string {
	return fmt.Sprintf("%s:%s", exchange, pair)
}

// Set caches a ticker for the configured TTL
func (t *TickerCache) Set(exchange string, pair currency.Pair, ticker *models.Ticker) {
	if !t.config.Enabled || ticker == nil {
		return
	}
	t.cache.Set(t.Key(exchange, pair), ticker, t.config.TickerTTL)
}

// Get retrieves a cached ticker if one is present and fresh
func (t *TickerCache) Get(exchange string, pair currency.Pair) (*models.Ticker, bool) {
	value, found := t.cache.Get(t.Key(exchange, pair))
	if !found {
		return nil, false
	}
	ticker, ok := value.(*models.Ticker)
	if !ok {
		return nil, false
	}
	return ticker, true
}

// Clear removes all cached tickers
func (t *TickerCache) Clear() {
	t.cache.Clear()
}

// Stop stops the cache's background sweeper
func (t *TickerCache) Stop() {
	t.cache.Stop()
}

// IsEnabled returns whether caching is enabled
func (t *TickerCache) IsEnabled() bool {
	return t.config.Enabled
}
