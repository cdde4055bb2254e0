// Package config provides configuration management for the trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"dip-trader/internal/models"
)

// Default venue ports. The port identifies the trading mode: TWS exposes the
// live session on 7496 and the paper session on 7497.
const (
	DefaultLivePort  = 7496
	DefaultPaperPort = 7497
)

// Config holds all application configuration.
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Paper      PaperConfig      `mapstructure:"paper"`
	Reports    ReportsConfig    `mapstructure:"reports"`
	Email      EmailConfig      `mapstructure:"email"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ConnectionConfig holds venue connection configuration.
type ConnectionConfig struct {
	Host           string        `mapstructure:"host"`
	LivePort       int           `mapstructure:"live_port"`
	PaperPort      int           `mapstructure:"paper_port"`
	ClientID       int64         `mapstructure:"client_id"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// StrategyConfig holds the drop-monitoring strategy configuration.
type StrategyConfig struct {
	BenchmarkSymbol    string        `mapstructure:"benchmark_symbol"`
	Tiers              []float64     `mapstructure:"tiers"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	PriceWait          time.Duration `mapstructure:"price_wait"`
	SampleInterval     time.Duration `mapstructure:"sample_interval"`
	HaltOnTradeFailure bool          `mapstructure:"halt_on_trade_failure"`
}

// PaperConfig holds paper trading simulation configuration.
type PaperConfig struct {
	StartingCash float64            `mapstructure:"starting_cash"`
	Prices       map[string]float64 `mapstructure:"prices"`
}

// ReportsConfig holds report output configuration.
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}

// EmailConfig holds email notification configuration. Email is optional:
// missing credentials disable the notifier without raising an error.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/dip-trader"
	}
	return filepath.Join(home, ".config", "dip-trader")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file is
// replaced with a template and defaults.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("connection.host", "127.0.0.1")
	v.SetDefault("connection.live_port", DefaultLivePort)
	v.SetDefault("connection.paper_port", DefaultPaperPort)
	v.SetDefault("connection.client_id", 1)
	v.SetDefault("connection.max_attempts", 3)
	v.SetDefault("connection.retry_delay", "5s")
	v.SetDefault("connection.connect_timeout", "30s")

	v.SetDefault("strategy.benchmark_symbol", "SPX")
	v.SetDefault("strategy.tiers", []float64{10, 20, 30, 40})
	v.SetDefault("strategy.poll_interval", "60s")
	v.SetDefault("strategy.price_wait", "10s")
	v.SetDefault("strategy.sample_interval", "250ms")
	v.SetDefault("strategy.halt_on_trade_failure", true)

	v.SetDefault("paper.starting_cash", 100000.0)

	v.SetDefault("reports.dir", filepath.Join(configDir, "reports"))

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", filepath.Join(configDir, "logs", "dip-trader.log"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADING_EMAIL"); v != "" {
		cfg.Email.Username = v
		if cfg.Email.From == "" {
			cfg.Email.From = v
		}
	}
	if v := os.Getenv("TRADING_EMAIL_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("DIP_TRADER_HOST"); v != "" {
		cfg.Connection.Host = v
	}
	if v := os.Getenv("DIP_TRADER_CLIENT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Connection.ClientID = id
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host must not be empty")
	}
	if c.Connection.LivePort == c.Connection.PaperPort {
		return fmt.Errorf("live_port and paper_port must differ (port selects the mode)")
	}
	if c.Connection.MaxAttempts < 1 {
		return fmt.Errorf("connection.max_attempts must be at least 1")
	}
	if c.Connection.ConnectTimeout <= 0 {
		return fmt.Errorf("connection.connect_timeout must be positive")
	}

	if c.Strategy.BenchmarkSymbol == "" {
		return fmt.Errorf("strategy.benchmark_symbol must not be empty")
	}
	if len(c.Strategy.Tiers) == 0 {
		return fmt.Errorf("strategy.tiers must not be empty")
	}
	if !sort.Float64sAreSorted(c.Strategy.Tiers) {
		return fmt.Errorf("strategy.tiers must be in increasing order")
	}
	for i, t := range c.Strategy.Tiers {
		if t <= 0 {
			return fmt.Errorf("strategy.tiers[%d] must be positive, got %v", i, t)
		}
		if i > 0 && t == c.Strategy.Tiers[i-1] {
			return fmt.Errorf("strategy.tiers must be strictly increasing")
		}
	}
	if c.Strategy.PollInterval <= 0 {
		return fmt.Errorf("strategy.poll_interval must be positive")
	}
	if c.Strategy.PriceWait <= 0 || c.Strategy.SampleInterval <= 0 {
		return fmt.Errorf("strategy.price_wait and strategy.sample_interval must be positive")
	}
	if c.Strategy.SampleInterval > c.Strategy.PriceWait {
		return fmt.Errorf("strategy.sample_interval must not exceed strategy.price_wait")
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" || c.Email.From == "" || c.Email.To == "" {
			return fmt.Errorf("email enabled but smtp_host, from or to is missing")
		}
	}

	return nil
}

// PortFor returns the venue port for the given trading mode.
func (c *Config) PortFor(mode models.TradingMode) int {
	if mode == models.ModeLive {
		return c.Connection.LivePort
	}
	return c.Connection.PaperPort
}

// ModeFor returns the trading mode a port identifies, or an error when the
// port matches neither configured mode.
func (c *Config) ModeFor(port int) (models.TradingMode, error) {
	switch port {
	case c.Connection.LivePort:
		return models.ModeLive, nil
	case c.Connection.PaperPort:
		return models.ModePaper, nil
	default:
		return "", fmt.Errorf("port %d matches neither live (%d) nor paper (%d)",
			port, c.Connection.LivePort, c.Connection.PaperPort)
	}
}
