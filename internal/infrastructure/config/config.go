package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration.
type Config struct {
	Logging     LogConfig
	Dispatcher  DispatcherConfig
	Locks       LockConfig
	Loader      LoaderConfig
	Services    ServicesConfig
	Development DevelopmentConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// DispatcherConfig sizes the UI dispatcher queue.
type DispatcherConfig struct {
	QueueSize        int `envconfig:"TT_UI_QUEUE_SIZE" default:"128"`
	BackpressureWarn int `envconfig:"TT_BACKPRESSURE_WARN" default:"100"`
}

// LockConfig holds the default wait for shared-bus locks.
type LockConfig struct {
	Timeout time.Duration `envconfig:"TT_LOCK_TIMEOUT" default:"100ms"`
}

// LoaderConfig holds foreground app loader settings.
type LoaderConfig struct {
	MaxStackDepth int           `envconfig:"TT_APP_STACK_DEPTH" default:"16"`
	AutoStart     string        `envconfig:"TT_AUTOSTART_APP" default:"Launcher"`
	Timeout       time.Duration `envconfig:"TT_LOADER_TIMEOUT" default:"1s"`
}

// ServicesConfig holds polling intervals of the built-in services.
type ServicesConfig struct {
	SdCardPoll    time.Duration `envconfig:"TT_SDCARD_POLL" default:"2s"`
	StatusbarPoll time.Duration `envconfig:"TT_STATUSBAR_POLL" default:"1s"`
}

// DevelopmentConfig holds the development HTTP service settings.
type DevelopmentConfig struct {
	Enabled bool   `envconfig:"TT_DEV_ENABLED" default:"false"`
	Addr    string `envconfig:"TT_DEV_ADDR" default:"127.0.0.1:6666"`
	RPS     int    `envconfig:"TT_DEV_RPS" default:"20"`
	Burst   int    `envconfig:"TT_DEV_BURST" default:"40"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Dispatcher: DispatcherConfig{
			QueueSize:        128,
			BackpressureWarn: 100,
		},
		Locks: LockConfig{
			Timeout: 100 * time.Millisecond,
		},
		Loader: LoaderConfig{
			MaxStackDepth: 16,
			AutoStart:     "Launcher",
			Timeout:       time.Second,
		},
		Services: ServicesConfig{
			SdCardPoll:    2 * time.Second,
			StatusbarPoll: time.Second,
		},
		Development: DevelopmentConfig{
			Enabled: false,
			Addr:    "127.0.0.1:6666",
			RPS:     20,
			Burst:   40,
		},
	}
}
