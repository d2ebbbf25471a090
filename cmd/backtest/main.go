package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"backtest_go/internal/app"
	"backtest_go/internal/domain"
	"backtest_go/internal/engine"
	"backtest_go/internal/infra/feed"
	"backtest_go/internal/strategy"
)

func main() {
	// .env overrides are optional; a missing file is fine.
	_ = godotenv.Load()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	if cfg.Backtest.RunMode == domain.RunModeLive {
		runLive(cfg.Feed.WSURL)
		return
	}

	if err := bootstrap.LoadData(); err != nil {
		slog.Error("data load failed", slog.Any("error", err))
		os.Exit(1)
	}

	strat := strategy.NewBuyHold(
		cfg.Backtest.Accounts[0].Name,
		cfg.Backtest.Universe,
		decimal.NewFromInt(100),
		bootstrap.Bars,
	)

	driver, err := engine.New(cfg, bootstrap.Bars, bootstrap.ExRights, strat, slog.Default())
	if err != nil {
		slog.Error("driver construction failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := driver.Run(); err != nil {
		slog.Error("backtest failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := bootstrap.Store.SaveHistory(driver.Ledger().History()); err != nil {
		slog.Error("snapshot persistence failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("run snapshot persisted")
}

// runLive drains the websocket bar feed. The live trading path itself is
// not implemented; this keeps the gateway connection exercised so the
// backtest and live configurations share one surface.
func runLive(url string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := feed.Dial(ctx, url, slog.Default())
	if err != nil {
		slog.Error("feed dial failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer f.Close()

	for {
		select {
		case <-ctx.Done():
			slog.Info("live feed stopped")
			return
		default:
		}
		bar, err := f.Next()
		if err != nil {
			slog.Error("feed read failed", slog.Any("error", err))
			return
		}
		slog.Info("bar received",
			slog.String("symbol", bar.Symbol),
			slog.Int("date", bar.Date),
			slog.String("close", bar.Close.String()))
	}
}
