package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/evdnx/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/evdnx/goxchange/internal/logutil"
)

const configComponent = "config"

// Manager handles configuration loading, validation, and hot reloading
type Manager struct {
	viper       *viper.Viper
	config      *Config
	configLock  sync.RWMutex
	validate    *validator.Validate
	watchConfig bool
	onChange    []func(config *Config)
}

// Config represents the library configuration with validation
type Config struct {
	LogLevel    string           `mapstructure:"logLevel" validate:"required,oneof=debug info warning error fatal"`
	HTTPTimeout time.Duration    `mapstructure:"httpTimeout" validate:"gt=0"`
	MaxRetries  int              `mapstructure:"maxRetries" validate:"gte=0"`
	Exchanges   []ExchangeConfig `mapstructure:"exchanges" validate:"dive"`
}

// ExchangeConfig represents per-exchange credentials with validation
type ExchangeConfig struct {
	Name      string `mapstructure:"name" validate:"required,oneof=bitfinex kraken okex"`
	APIKey    string `mapstructure:"apiKey" validate:"required"`
	APISecret string `mapstructure:"apiSecret" validate:"required"`
}

// Exchange returns the configuration for a named exchange, or nil when the
// exchange is not configured.
func (c *Config) Exchange(name string) *ExchangeConfig {
	for i := range c.Exchanges {
		if c.Exchanges[i].Name == name {
			return &c.Exchanges[i]
		}
	}
	return nil
}

// NewManager creates a new configuration manager
func NewManager(configPath string, watchConfig bool) (*Manager, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GOXCHANGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	loadDefaultConfig(v)

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}

		v.SetConfigFile(absPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load configuration file: %w", err)
		}
	}

	m := &Manager{
		viper:       v,
		validate:    validator.New(),
		watchConfig: watchConfig,
		onChange:    make([]func(config *Config), 0),
	}

	if err := m.loadConfig(); err != nil {
		return nil, err
	}

	if watchConfig {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			if err := m.loadConfig(); err != nil {
				logutil.Default().Error("Failed to reload configuration",
					golog.String("component", configComponent),
					golog.String("file", e.Name),
					golog.String("error", err.Error()))
				return
			}

			m.configLock.RLock()
			defer m.configLock.RUnlock()
			for _, callback := range m.onChange {
				callback(m.config)
			}
		})
	}

	return m, nil
}

// loadDefaultConfig sets default configuration values
func loadDefaultConfig(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("httpTimeout", "10s")
	v.SetDefault("maxRetries", 2)
}

// loadConfig loads the configuration from Viper into the config struct
func (m *Manager) loadConfig() error {
	var rawConfig Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result:      &rawConfig,
		ErrorUnused: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(m.viper.AllSettings()); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := m.validate.Struct(rawConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := logutil.SetLevel(rawConfig.LogLevel); err != nil {
		return fmt.Errorf("failed to apply log level: %w", err)
	}

	m.configLock.Lock()
	m.config = &rawConfig
	m.configLock.Unlock()

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	m.configLock.RLock()
	defer m.configLock.RUnlock()
	return m.config
}

// GetViper returns the Viper instance
func (m *Manager) GetViper() *viper.Viper {
	return m.viper
}

// RegisterOnChangeCallback registers a callback invoked after every
// successful configuration reload
func (m *Manager) RegisterOnChangeCallback(callback func(config *Config)) {
	m.configLock.Lock()
	defer m.configLock.Unlock()
	m.onChange = append(m.onChange, callback)
}
