package goxchange

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/goxchange/config"
)

func TestNewExchangeClientFactoryFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
httpTimeout: 3s
maxRetries: 4
exchanges:
  - name: kraken
    apiKey: key
    apiSecret: secret
`), 0o600))

	manager, err := config.NewManager(path, false)
	require.NoError(t, err)

	factory, err := NewExchangeClientFactoryFromConfig(manager, nil)
	require.NoError(t, err)

	registered, ok := factory.configs[ExchangeKraken]
	require.True(t, ok)
	assert.Equal(t, "key", registered.APIKey)
	assert.Equal(t, 3*time.Second, registered.HTTPTimeout)
	assert.Equal(t, 4, registered.MaxRetries)

	clients, err := factory.GetAllExchangeClients()
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Kraken", clients[ExchangeKraken].GetName())
}

func TestCreateExchangeClientRejectsUnknownType(t *testing.T) {
	factory := NewExchangeClientFactory()
	_, err := factory.CreateExchangeClient(ExchangeConfig{Type: ExchangeType("mtgox")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported exchange type")
}
