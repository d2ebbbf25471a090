package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"backtest_go/internal/domain"
)

const validYAML = `
app:
  name: backtest_go
  version: 0.1.0

backtest:
  run_mode: backtesting
  start: 20190101
  end: 20191231
  interval: d
  universe:
    - 600000.SH
    - 000001.SZ
  benchmark: 000300.SH
  accounts:
    - name: acc_0
      equity: 1000000
  slippage:
    stock:
      type: fix
      value: 0.01
  commission:
    stock_sh:
      tax: 0.001
      open: 0.0003
      close: 0.0005
      close_today: 0
      min: 5
    stock_sz:
      tax: 0.001
      open: 0.0003
      close: 0.0003
      close_today: 0
      min: 5

database:
  path: data/backtest.db

logging:
  level: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	if cfg.Backtest.Start != 20190101 || cfg.Backtest.End != 20191231 {
		t.Errorf("window parsed wrong: %d..%d", cfg.Backtest.Start, cfg.Backtest.End)
	}
	if len(cfg.Backtest.Universe) != 2 {
		t.Errorf("expected 2 universe symbols, got %d", len(cfg.Backtest.Universe))
	}
	if cfg.Backtest.Accounts[0].Name != "acc_0" || !cfg.Backtest.Accounts[0].Equity.IsPositive() {
		t.Errorf("account parsed wrong: %+v", cfg.Backtest.Accounts[0])
	}
	if s, ok := cfg.Backtest.Slippage["stock"]; !ok || s.Type != "fix" {
		t.Errorf("slippage parsed wrong: %+v", cfg.Backtest.Slippage)
	}
	if c, ok := cfg.Backtest.Commission["stock_sh"]; !ok || !c.Min.IsPositive() {
		t.Errorf("commission parsed wrong: %+v", cfg.Backtest.Commission)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("BACKTEST_DB_PATH", "/tmp/override.db")

	cfg, err := LoadConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("expected env override to win, got %s", cfg.Database.Path)
	}
}

func TestValidate_FailsFast(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig(writeConfig(t, validYAML))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			"unknown run mode",
			func(c *Config) { c.Backtest.RunMode = "paper" },
			"backtest.run_mode",
		},
		{
			"inverted window",
			func(c *Config) { c.Backtest.Start, c.Backtest.End = 20191231, 20190101 },
			"backtest.start/end",
		},
		{
			"empty universe",
			func(c *Config) { c.Backtest.Universe = nil },
			"backtest.universe",
		},
		{
			"missing benchmark",
			func(c *Config) { c.Backtest.Benchmark = "" },
			"backtest.benchmark",
		},
		{
			"no accounts",
			func(c *Config) { c.Backtest.Accounts = nil },
			"backtest.accounts",
		},
		{
			"commission gap for a traded symbol type",
			func(c *Config) { delete(c.Backtest.Commission, "stock_sz") },
			"backtest.commission",
		},
		{
			"slippage gap for a traded family",
			func(c *Config) { delete(c.Backtest.Slippage, "stock") },
			"backtest.slippage",
		},
		{
			"unknown slippage type",
			func(c *Config) {
				s := c.Backtest.Slippage["stock"]
				s.Type = "linear"
				c.Backtest.Slippage["stock"] = s
			},
			"backtest.slippage",
		},
		{
			"live mode without a feed",
			func(c *Config) { c.Backtest.RunMode = domain.RunModeLive },
			"feed.ws_url",
		},
		{
			"missing database path",
			func(c *Config) { c.Database.Path = "" },
			"database.path",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := base()
			c.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected a ConfigError, got %T: %v", err, err)
			}
			if ce.Field != c.field {
				t.Errorf("expected field %q, got %q", c.field, ce.Field)
			}
		})
	}
}
