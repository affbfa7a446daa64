package exchange

import (
	"testing"
	"time"
)

func TestClientOptionsOverrideDefaults(t *testing.T) {
	c := NewKrakenClientWithOptions("key", "secret", Options{
		HTTPTimeout: 3 * time.Second,
		MaxRetries:  5,
	})
	if c.httpTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", c.httpTimeout)
	}
}

func TestClientOptionsZeroValuesKeepDefaults(t *testing.T) {
	c := NewBitfinexClientWithOptions("key", "secret", Options{})
	if c.httpTimeout != bitfinexHTTPTimeout {
		t.Errorf("expected default timeout %s, got %s", bitfinexHTTPTimeout, c.httpTimeout)
	}
	if got := (Options{}).retries(); got != defaultMaxRetries {
		t.Errorf("expected %d retries, got %d", defaultMaxRetries, got)
	}
	if got := (Options{MaxRetries: 5}).retries(); got != 5 {
		t.Errorf("expected 5 retries, got %d", got)
	}
}
