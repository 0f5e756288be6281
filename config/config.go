// Package config holds the process configuration: account parameters,
// server and feed wiring, journaling, and logging. Files may be YAML or
// JSON; the format is chosen by extension on save and probed on load.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete process configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Feed       FeedConfig       `json:"feed" yaml:"feed"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Simulation SimulationConfig `json:"simulation,omitempty" yaml:"simulation,omitempty"`
}

// AccountConfig contains the paper account's initial parameters.
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
	// CommissionRate is a percentage of notional per fill: 0.1 means
	// 0.1%.
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
}

// ServerConfig contains the HTTP listener parameters.
type ServerConfig struct {
	Listen string `json:"listen" yaml:"listen"` // e.g. ":8080"
	// WebhookToken, when set, must accompany webhook requests as a
	// Bearer token. Empty disables the check.
	WebhookToken string `json:"webhook_token,omitempty" yaml:"webhook_token,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type         string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	FillsFile    string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	BalancesFile string `json:"balances_file,omitempty" yaml:"balances_file,omitempty"`
	DBPath       string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// FeedConfig wires an external price source to the resolution loop.
type FeedConfig struct {
	Mode     string   `json:"mode" yaml:"mode"` // "off", "poll" or "stream"
	Endpoint string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Symbols  []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Interval string   `json:"interval,omitempty" yaml:"interval,omitempty"` // poll cadence, e.g. "5s"
}

// ParseInterval converts the poll interval string to a time.Duration.
func (f FeedConfig) ParseInterval() (time.Duration, error) {
	if f.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(f.Interval)
}

// LoggingConfig controls level and optional rotating file output.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`                                 // debug, info, warn, error
	File       string `json:"file,omitempty" yaml:"file,omitempty"`               // empty means no log file
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"` // rotate threshold
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// SimulationConfig scripts the run command: a sequence of order
// submissions and price ticks played against a fresh account.
type SimulationConfig struct {
	Steps []SimStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// SimStep is one scripted action: an order submission ("order") or a
// price tick that resolves resting orders ("tick").
type SimStep struct {
	Action string `json:"action" yaml:"action"` // "order" or "tick"

	Symbol   string  `json:"symbol" yaml:"symbol"`
	Price    float64 `json:"price" yaml:"price"`
	Side     string  `json:"side,omitempty" yaml:"side,omitempty"` // order only
	Kind     string  `json:"kind,omitempty" yaml:"kind,omitempty"` // order only
	Quantity float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Limit    float64 `json:"limit,omitempty" yaml:"limit,omitempty"`
	Strategy string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Delay    string  `json:"delay,omitempty" yaml:"delay,omitempty"` // e.g. "1s", "250ms"
}

// ParseDelay converts the delay string to a time.Duration.
func (s SimStep) ParseDelay() (time.Duration, error) {
	if s.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Delay)
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.CommissionRate < 0 || c.Account.CommissionRate >= 100 {
		return fmt.Errorf("account.commission_rate must be a percentage in [0, 100)")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.BalancesFile == "" {
			return fmt.Errorf("journal fills_file and balances_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	switch c.Feed.Mode {
	case "", "off":
	case "poll":
		if len(c.Feed.Symbols) == 0 {
			return fmt.Errorf("feed.symbols required for poll mode")
		}
		if _, err := c.Feed.ParseInterval(); err != nil {
			return fmt.Errorf("feed.interval: %w", err)
		}
	case "stream":
		if len(c.Feed.Symbols) == 0 {
			return fmt.Errorf("feed.symbols required for stream mode")
		}
	default:
		return fmt.Errorf("feed.mode must be 'off', 'poll' or 'stream'")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	for i, s := range c.Simulation.Steps {
		if s.Action != "order" && s.Action != "tick" {
			return fmt.Errorf("simulation.steps[%d]: action must be 'order' or 'tick'", i)
		}
		if s.Symbol == "" {
			return fmt.Errorf("simulation.steps[%d]: symbol is required", i)
		}
		if _, err := s.ParseDelay(); err != nil {
			return fmt.Errorf("simulation.steps[%d]: delay: %w", i, err)
		}
	}

	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:             "PAPER-001",
			Currency:       "USDT",
			Balance:        10000,
			CommissionRate: 0.1,
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Journal: JournalConfig{
			Type:         "csv",
			FillsFile:    "./fills.csv",
			BalancesFile: "./balances.csv",
		},
		Feed: FeedConfig{
			Mode: "off",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
