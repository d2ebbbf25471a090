package app

import (
	"log/slog"

	"backtest_go/internal/domain"
	"backtest_go/internal/infra"
	"backtest_go/internal/infra/marketdata"
	"backtest_go/internal/infra/storage"
)

// Bootstrap orchestrates startup: config, logger, database, and the
// pre-loop data pull. All I/O happens here, before the simulation starts;
// the core never blocks on it.
type Bootstrap struct {
	Config   *infra.Config
	Store    *storage.Store
	Bars     *marketdata.Table
	ExRights map[string]map[int]domain.ExRights
}

// NewBootstrap creates an empty Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, installs the logger and opens storage.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))

	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("database initialized", slog.String("path", cfg.Database.Path))

	return nil
}

// LoadData pulls the bar window and ex-rights records into memory.
func (b *Bootstrap) LoadData() error {
	bt := &b.Config.Backtest
	symbols := append(append([]string(nil), bt.Universe...), bt.Benchmark)

	bars, err := b.Store.LoadBars(symbols, bt.Start, bt.End)
	if err != nil {
		return err
	}
	b.Bars = bars

	exRights, err := b.Store.LoadExRights(bt.Start)
	if err != nil {
		return err
	}
	b.ExRights = exRights

	slog.Info("market data loaded",
		slog.Int("symbols", len(symbols)),
		slog.Int("start", bt.Start),
		slog.Int("end", bt.End))
	return nil
}
