package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewManagerDefaults(t *testing.T) {
	m, err := NewManager("", false)
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Empty(t, cfg.Exchanges)
}

func TestNewManagerFromFile(t *testing.T) {
	path := writeConfig(t, `
logLevel: debug
httpTimeout: 5s
exchanges:
  - name: kraken
    apiKey: key
    apiSecret: secret
  - name: okex
    apiKey: key2
    apiSecret: secret2
`)
	m, err := NewManager(path, false)
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Len(t, cfg.Exchanges, 2)

	kraken := cfg.Exchange("kraken")
	require.NotNil(t, kraken)
	assert.Equal(t, "key", kraken.APIKey)

	assert.Nil(t, cfg.Exchange("bitfinex"))
}

func TestNewManagerRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, "logLevel: loud\n")
	_, err := NewManager(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestNewManagerRejectsUnknownExchange(t *testing.T) {
	path := writeConfig(t, `
exchanges:
  - name: mtgox
    apiKey: key
    apiSecret: secret
`)
	_, err := NewManager(path, false)
	require.Error(t, err)
}

func TestNewManagerRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "logLevel: info\nsomethingElse: true\n")
	_, err := NewManager(path, false)
	require.Error(t, err)
}
