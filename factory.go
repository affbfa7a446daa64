package goxchange

import (
	"fmt"
	"sync"
	"time"

	metrics "github.com/evdnx/gotrademetrics"

	"github.com/evdnx/goxchange/config"
	"github.com/evdnx/goxchange/exchange"
	common "github.com/evdnx/goxchange/exchange/common"
)

// ExchangeType represents a supported cryptocurrency exchange
type ExchangeType string

const (
	// ExchangeBitfinex represents the Bitfinex exchange
	ExchangeBitfinex ExchangeType = "bitfinex"
	// ExchangeKraken represents the Kraken exchange
	ExchangeKraken ExchangeType = "kraken"
	// ExchangeOKEx represents the OKEx exchange
	ExchangeOKEx ExchangeType = "okex"
)

// ExchangeConfig represents configuration for one exchange client
type ExchangeConfig struct {
	Type      ExchangeType
	APIKey    string
	APISecret string
	// HTTPTimeout and MaxRetries override the per-exchange defaults when
	// set; zero values keep the defaults.
	HTTPTimeout time.Duration
	MaxRetries  int
	// Metrics is optional; clients run without instrumentation when nil.
	Metrics *metrics.Metrics
}

func (c ExchangeConfig) clientOptions() exchange.Options {
	return exchange.Options{
		HTTPTimeout: c.HTTPTimeout,
		MaxRetries:  c.MaxRetries,
		Metrics:     c.Metrics,
	}
}

// ExchangeCapability describes what a given exchange supports
type ExchangeCapability string

const (
	// CapabilitySpotTrading marks exchanges with plain spot markets
	CapabilitySpotTrading ExchangeCapability = "spot_trading"
	// CapabilityMarginTrading marks exchanges with leveraged positions
	CapabilityMarginTrading ExchangeCapability = "margin_trading"
	// CapabilityFuturesTrading marks exchanges trading contracts rather
	// than crypto amounts directly
	CapabilityFuturesTrading ExchangeCapability = "futures_trading"
)

// GetExchangeCapabilities returns the capabilities for an exchange type
func GetExchangeCapabilities(exchangeType ExchangeType) []ExchangeCapability {
	switch exchangeType {
	case ExchangeBitfinex:
		return []ExchangeCapability{
			CapabilitySpotTrading,
			CapabilityMarginTrading,
		}
	case ExchangeKraken:
		return []ExchangeCapability{
			CapabilitySpotTrading,
			CapabilityMarginTrading,
		}
	case ExchangeOKEx:
		return []ExchangeCapability{
			CapabilityFuturesTrading,
		}
	default:
		return []ExchangeCapability{}
	}
}

// ExchangeClientFactory centralizes creation and registration of exchange
// clients so the rest of a codebase has a single entry point.
type ExchangeClientFactory struct {
	configs map[ExchangeType]ExchangeConfig
	mu      sync.RWMutex
}

// NewExchangeClientFactory creates a new exchange client factory
func NewExchangeClientFactory() *ExchangeClientFactory {
	return &ExchangeClientFactory{
		configs: make(map[ExchangeType]ExchangeConfig),
	}
}

// NewExchangeClientFactoryFromConfig builds a factory pre-registered with
// every exchange in the configuration, carrying its credentials and the
// shared timeout and retry settings. Metrics is optional.
func NewExchangeClientFactoryFromConfig(manager *config.Manager, m *metrics.Metrics) (*ExchangeClientFactory, error) {
	cfg := manager.GetConfig()
	factory := NewExchangeClientFactory()
	for _, ec := range cfg.Exchanges {
		exchangeType := ExchangeType(ec.Name)
		switch exchangeType {
		case ExchangeBitfinex, ExchangeKraken, ExchangeOKEx:
		default:
			return nil, fmt.Errorf("unsupported exchange type: %s", ec.Name)
		}
		factory.RegisterExchange(ExchangeConfig{
			Type:        exchangeType,
			APIKey:      ec.APIKey,
			APISecret:   ec.APISecret,
			HTTPTimeout: cfg.HTTPTimeout,
			MaxRetries:  cfg.MaxRetries,
			Metrics:     m,
		})
	}
	return factory, nil
}

// RegisterExchange registers an exchange with the factory
func (f *ExchangeClientFactory) RegisterExchange(config ExchangeConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[config.Type] = config
}

// CreateExchangeClient creates an exchange client based on the configuration
func (f *ExchangeClientFactory) CreateExchangeClient(config ExchangeConfig) (common.ExchangeClient, error) {
	switch config.Type {
	case ExchangeBitfinex:
		return exchange.NewBitfinexClientWithOptions(config.APIKey, config.APISecret, config.clientOptions()), nil
	case ExchangeKraken:
		return exchange.NewKrakenClientWithOptions(config.APIKey, config.APISecret, config.clientOptions()), nil
	case ExchangeOKEx:
		return exchange.NewOKExClientWithOptions(config.APIKey, config.APISecret, config.clientOptions()), nil
	default:
		return nil, fmt.Errorf("unsupported exchange type: %s", config.Type)
	}
}

// GetAllExchangeClients returns clients for all registered exchanges
func (f *ExchangeClientFactory) GetAllExchangeClients() (map[ExchangeType]common.ExchangeClient, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	clients := make(map[ExchangeType]common.ExchangeClient)
	for exchangeType, config := range f.configs {
		client, err := f.CreateExchangeClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for %s: %w", exchangeType, err)
		}
		clients[exchangeType] = client
	}
	return clients, nil
}
