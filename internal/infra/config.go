package infra

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"backtest_go/internal/domain"
)

// SlippageConfig is one entry of the per-symbol-family slippage schedule.
type SlippageConfig struct {
	Type  string          `yaml:"type"` // "fix" or "percent"
	Value decimal.Decimal `yaml:"value"`
}

// CommissionConfig is one entry of the per-symbol-type fee schedule.
// CloseToday is accepted and validated but not applied by the ledger.
type CommissionConfig struct {
	Tax        decimal.Decimal `yaml:"tax"`
	Open       decimal.Decimal `yaml:"open"`
	Close      decimal.Decimal `yaml:"close"`
	CloseToday decimal.Decimal `yaml:"close_today"`
	Min        decimal.Decimal `yaml:"min"`
}

// AccountConfig seeds one cash account.
type AccountConfig struct {
	Name   string          `yaml:"name"`
	Equity decimal.Decimal `yaml:"equity"`
}

// Config holds everything the driver consumes at construction time.
// Loaded from YAML, then overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Backtest struct {
		RunMode       string                      `yaml:"run_mode"`
		Start         int                         `yaml:"start"` // YYYYMMDD
		End           int                         `yaml:"end"`   // YYYYMMDD
		Interval      string                      `yaml:"interval"`
		Universe      []string                    `yaml:"universe"`
		UniverseLimit int                         `yaml:"universe_limit"`
		Benchmark     string                      `yaml:"benchmark"`
		Blacklist     []string                    `yaml:"blacklist"`
		Accounts      []AccountConfig             `yaml:"accounts"`
		Slippage      map[string]SlippageConfig   `yaml:"slippage"`
		Commission    map[string]CommissionConfig `yaml:"commission"`
	} `yaml:"backtest"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Feed struct {
		WSURL string `yaml:"ws_url"`
	} `yaml:"feed"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity. A schedule missing for a traded
// symbol type would silently corrupt the ledger, so it fails here, before
// the run starts.
func (c *Config) Validate() error {
	bt := &c.Backtest

	if bt.RunMode != domain.RunModeBacktest && bt.RunMode != domain.RunModeLive {
		return &domain.ConfigError{Field: "backtest.run_mode", Err: fmt.Errorf("unknown run mode %q", bt.RunMode)}
	}
	if bt.Start <= 0 || bt.End <= 0 || bt.Start > bt.End {
		return &domain.ConfigError{Field: "backtest.start/end", Err: fmt.Errorf("invalid window %d..%d", bt.Start, bt.End)}
	}
	if len(bt.Universe) == 0 {
		return &domain.ConfigError{Field: "backtest.universe", Err: fmt.Errorf("at least one symbol is required")}
	}
	if bt.Benchmark == "" {
		return &domain.ConfigError{Field: "backtest.benchmark", Err: fmt.Errorf("benchmark is required")}
	}
	if len(bt.Accounts) == 0 {
		return &domain.ConfigError{Field: "backtest.accounts", Err: fmt.Errorf("at least one account is required")}
	}
	for _, acc := range bt.Accounts {
		if acc.Name == "" || !acc.Equity.IsPositive() {
			return &domain.ConfigError{Field: "backtest.accounts", Err: fmt.Errorf("account %q needs a name and positive equity", acc.Name)}
		}
	}

	for _, sym := range bt.Universe {
		st := domain.GetSymbolType(sym)
		if _, ok := bt.Commission[st]; !ok {
			return &domain.ConfigError{Field: "backtest.commission", Err: fmt.Errorf("no commission schedule for symbol type %q (%s)", st, sym)}
		}
		if _, ok := bt.Slippage[slippageFamily(st)]; !ok {
			return &domain.ConfigError{Field: "backtest.slippage", Err: fmt.Errorf("no slippage schedule for symbol family %q (%s)", slippageFamily(st), sym)}
		}
	}
	for family, s := range bt.Slippage {
		if s.Type != string(domain.SlippageFix) && s.Type != string(domain.SlippagePercent) {
			return &domain.ConfigError{Field: "backtest.slippage", Err: fmt.Errorf("unknown slippage type %q for %q", s.Type, family)}
		}
	}

	if bt.RunMode == domain.RunModeLive && c.Feed.WSURL == "" {
		return &domain.ConfigError{Field: "feed.ws_url", Err: fmt.Errorf("live mode requires a feed URL")}
	}
	if c.Database.Path == "" {
		return &domain.ConfigError{Field: "database.path", Err: fmt.Errorf("database path is required")}
	}

	return nil
}

func slippageFamily(symbolType string) string {
	for i := 0; i < len(symbolType); i++ {
		if symbolType[i] == '_' {
			return symbolType[:i]
		}
	}
	return symbolType
}

// overrideWithEnv applies environment overrides so deployments can move
// the database and switch run mode without editing the YAML.
func overrideWithEnv(cfg *Config) {
	if p := os.Getenv("BACKTEST_DB_PATH"); p != "" {
		cfg.Database.Path = p
	}
	if m := os.Getenv("BACKTEST_RUN_MODE"); m != "" {
		cfg.Backtest.RunMode = m
	}
	if u := os.Getenv("BACKTEST_FEED_WS_URL"); u != "" {
		cfg.Feed.WSURL = u
	}
}
