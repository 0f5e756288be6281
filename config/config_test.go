package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modified returns a default config with one tweak applied, for
// exercising a single Validate rule per case.
func modified(mut func(*Config)) *Config {
	cfg := Default()
	mut(cfg)
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USDT", cfg.Account.Currency)
	assert.Equal(t, 10000.0, cfg.Account.Balance)
	assert.Equal(t, 0.1, cfg.Account.CommissionRate)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  Default(),
			wantErr: false,
		},
		{
			name:    "missing currency",
			config:  modified(func(c *Config) { c.Account.Currency = "" }),
			wantErr: true,
			errMsg:  "account.currency is required",
		},
		{
			name:    "negative balance",
			config:  modified(func(c *Config) { c.Account.Balance = -1000 }),
			wantErr: true,
			errMsg:  "account.balance must be positive",
		},
		{
			name:    "commission rate out of range",
			config:  modified(func(c *Config) { c.Account.CommissionRate = 100 }),
			wantErr: true,
			errMsg:  "account.commission_rate",
		},
		{
			name:    "negative commission rate",
			config:  modified(func(c *Config) { c.Account.CommissionRate = -0.1 }),
			wantErr: true,
			errMsg:  "account.commission_rate",
		},
		{
			name:    "missing listen address",
			config:  modified(func(c *Config) { c.Server.Listen = "" }),
			wantErr: true,
			errMsg:  "server.listen is required",
		},
		{
			name:    "unknown journal type",
			config:  modified(func(c *Config) { c.Journal.Type = "postgres" }),
			wantErr: true,
			errMsg:  "journal.type",
		},
		{
			name:    "csv journal without files",
			config:  modified(func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }),
			wantErr: true,
			errMsg:  "fills_file and balances_file",
		},
		{
			name:    "sqlite journal without path",
			config:  modified(func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }),
			wantErr: true,
			errMsg:  "db_path",
		},
		{
			name:    "none journal needs no paths",
			config:  modified(func(c *Config) { c.Journal = JournalConfig{Type: "none"} }),
			wantErr: false,
		},
		{
			name: "poll feed without endpoint uses the public default",
			config: modified(func(c *Config) {
				c.Feed = FeedConfig{Mode: "poll", Symbols: []string{"BTCUSDT"}, Interval: "5s"}
			}),
			wantErr: false,
		},
		{
			name: "poll feed without symbols",
			config: modified(func(c *Config) {
				c.Feed = FeedConfig{Mode: "poll", Endpoint: "https://api.example.com", Interval: "5s"}
			}),
			wantErr: true,
			errMsg:  "feed.symbols",
		},
		{
			name: "poll feed with bad interval",
			config: modified(func(c *Config) {
				c.Feed = FeedConfig{Mode: "poll", Endpoint: "https://api.example.com", Symbols: []string{"BTCUSDT"}, Interval: "soon"}
			}),
			wantErr: true,
			errMsg:  "feed.interval",
		},
		{
			name:    "unknown feed mode",
			config:  modified(func(c *Config) { c.Feed.Mode = "push" }),
			wantErr: true,
			errMsg:  "feed.mode",
		},
		{
			name:    "unknown log level",
			config:  modified(func(c *Config) { c.Logging.Level = "loud" }),
			wantErr: true,
			errMsg:  "logging.level",
		},
		{
			name: "sim step with unknown action",
			config: modified(func(c *Config) {
				c.Simulation.Steps = []SimStep{{Action: "wait", Symbol: "BTCUSDT"}}
			}),
			wantErr: true,
			errMsg:  "action must be",
		},
		{
			name: "sim step without symbol",
			config: modified(func(c *Config) {
				c.Simulation.Steps = []SimStep{{Action: "tick", Price: 50000}}
			}),
			wantErr: true,
			errMsg:  "symbol is required",
		},
		{
			name: "sim step with bad delay",
			config: modified(func(c *Config) {
				c.Simulation.Steps = []SimStep{{Action: "tick", Symbol: "BTCUSDT", Price: 50000, Delay: "whenever"}}
			}),
			wantErr: true,
			errMsg:  "delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Account.Balance = 25000
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "./paper.db"}
			cfg.Simulation.Steps = []SimStep{
				{Action: "order", Symbol: "BTCUSDT", Side: "BUY", Kind: "MARKET", Price: 50000, Quantity: 0.1},
				{Action: "tick", Symbol: "BTCUSDT", Price: 48000, Delay: "1s"},
			}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			_, err = os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Account.Currency, loaded.Account.Currency)
			assert.Equal(t, cfg.Account.Balance, loaded.Account.Balance)
			assert.Equal(t, cfg.Account.CommissionRate, loaded.Account.CommissionRate)
			assert.Equal(t, cfg.Journal.DBPath, loaded.Journal.DBPath)
			require.Len(t, loaded.Simulation.Steps, 2)
			assert.Equal(t, "order", loaded.Simulation.Steps[0].Action)
			assert.Equal(t, 48000.0, loaded.Simulation.Steps[1].Price)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")

	// SaveToFile does not validate, so the broken config lands on disk.
	cfg := Default()
	cfg.Account.Currency = ""
	require.NoError(t, cfg.SaveToFile(path))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestSimStepParseDelay(t *testing.T) {
	tests := []struct {
		delay    string
		expected string
		wantErr  bool
	}{
		{"1h", "1h0m0s", false},
		{"30m", "30m0s", false},
		{"250ms", "250ms", false},
		{"", "0s", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.delay, func(t *testing.T) {
			s := SimStep{Delay: tt.delay}
			d, err := s.ParseDelay()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.String())
			}
		})
	}
}
