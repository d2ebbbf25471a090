package engine

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/infra"
	"backtest_go/internal/infra/marketdata"
	"backtest_go/internal/ledger"
	"backtest_go/internal/matching"
	"backtest_go/internal/rights"
	"backtest_go/internal/strategy"
)

// Driver orchestrates one backtest run. It owns the ledger, the matching
// engine and the corporate-action pipeline, and drives the bar-to-bar
// clock from the benchmark's date axis. Everything runs on the caller's
// goroutine; one bar is fully processed, every nested order and trade
// event included, before the next one starts.
type Driver struct {
	cfg     *infra.Config
	bus     *event.Dispatcher
	led     *ledger.Ledger
	matcher *matching.Engine
	rights  *rights.Pipeline
	data    *marketdata.Table
	strat   strategy.Strategy

	universe  []string
	benchmark []int
	prevDate  int
	orderSent bool

	log *slog.Logger
}

// New wires a driver from configuration, preloaded market data and
// ex-rights records, and the strategy under test. Schedule completeness
// was already verified by Config.Validate; an empty benchmark axis is the
// one remaining construction failure.
func New(cfg *infra.Config, data *marketdata.Table, exRights map[string]map[int]domain.ExRights, strat strategy.Strategy, log *slog.Logger) (*Driver, error) {
	if log == nil {
		log = slog.Default()
	}
	bt := &cfg.Backtest

	benchmark := make([]int, 0)
	for _, date := range data.Dates(bt.Benchmark) {
		if date >= bt.Start && date <= bt.End {
			benchmark = append(benchmark, date)
		}
	}
	if len(benchmark) == 0 {
		return nil, domain.ErrNoBenchmarkData
	}

	universe := append([]string(nil), bt.Universe...)
	if bt.UniverseLimit > 0 && len(universe) > bt.UniverseLimit {
		universe = universe[:bt.UniverseLimit]
	}

	seeds := make([]ledger.AccountSeed, 0, len(bt.Accounts))
	for _, acc := range bt.Accounts {
		seeds = append(seeds, ledger.AccountSeed{Name: acc.Name, Equity: acc.Equity})
	}

	slippage := make(map[string]ledger.SlippageRule, len(bt.Slippage))
	for family, s := range bt.Slippage {
		slippage[family] = ledger.SlippageRule{Mode: domain.SlippageMode(s.Type), Value: s.Value}
	}
	commission := make(map[string]ledger.CommissionRule, len(bt.Commission))
	for st, c := range bt.Commission {
		commission[st] = ledger.CommissionRule{
			Tax: c.Tax, Open: c.Open, Close: c.Close, CloseToday: c.CloseToday, Min: c.Min,
		}
	}

	bus := event.NewDispatcher()
	led := ledger.New(seeds, slippage, commission, bt.Blacklist, len(universe), log)

	d := &Driver{
		cfg:       cfg,
		bus:       bus,
		led:       led,
		matcher:   matching.New(led, bus, log),
		rights:    rights.New(exRights, led, bus, log),
		data:      data,
		strat:     strat,
		universe:  universe,
		benchmark: benchmark,
		log:       log,
	}

	bus.Register(event.KindOrder, d.onOrder)
	bus.Register(event.KindTrade, d.onTrade)

	return d, nil
}

func (d *Driver) onOrder(ev event.Event) { d.strat.HandleOrder(ev) }
func (d *Driver) onTrade(ev event.Event) { d.strat.HandleTrade(ev) }

// Ledger exposes the run's ledger for persistence and inspection.
func (d *Driver) Ledger() *ledger.Ledger { return d.led }

// Dispatcher exposes the event bus, e.g. for extra observers in tests.
func (d *Driver) Dispatcher() *event.Dispatcher { return d.bus }

// Run replays every benchmark bar in order and returns when the axis is
// exhausted. Partial history up to a halting bar remains inspectable on
// the ledger.
func (d *Driver) Run() error {
	d.strat.Init(d)
	for i, date := range d.benchmark {
		d.processBar(i, date)
	}
	d.log.Info("backtest complete", slog.Int("bars", len(d.benchmark)))
	return nil
}

// processBar runs the fixed per-bar sequence. The order is deliberate and
// must not change: corporate actions precede matching, and matching
// precedes the strategy callback, so strategies never observe
// pre-adjustment prices or un-crossed stale orders.
func (d *Driver) processBar(index, date int) {
	closeOf := func(sym string) decimal.Decimal { return d.data.Close(sym, date) }

	// (1) new calendar bar lifts T+1 freezes
	if index > 0 && d.prevDate != date {
		d.led.UnfreezeDaily(closeOf)
	}

	// (2) ex-rights adjustments, positions before resting orders
	d.rights.AdjustPositions(date)
	d.rights.AdjustOrders(date)

	// (3) bar snapshot for every symbol with exposure
	quotes := d.snapshotQuotes(date)

	// (4) matching, limit pass then stop pass, same snapshot
	d.matcher.MatchLimitOrders(date, quotes)
	d.matcher.MatchStopOrders(date, quotes)

	// (5) strategy sees the settled bar and may send orders
	d.orderSent = false
	d.strat.HandleBar(event.Event{Kind: event.KindBar, Date: date}, d)

	// (6) portfolio-risk pass only when no new order appeared
	if !d.orderSent {
		d.strat.HandlePortfolioRisk(event.Event{Kind: event.KindPortfolio, Date: date}, d)
	}

	// (7) settle the bar into history
	d.led.PurgeZeroPositions()
	d.led.MarkToMarket(date, closeOf)
	d.led.SnapshotBar(date)
	d.led.ResetBar()

	d.prevDate = date
}

// snapshotQuotes collects the bar OHLC for the universe plus every symbol
// carried by an active order, stop order or open position.
func (d *Driver) snapshotQuotes(date int) map[string]domain.Bar {
	quotes := make(map[string]domain.Bar)
	add := func(sym string) {
		if _, seen := quotes[sym]; seen {
			return
		}
		if bar, ok := d.data.Bar(sym, date); ok {
			quotes[sym] = bar
		}
	}

	for _, sym := range d.universe {
		add(sym)
	}
	for _, o := range d.led.ActiveLimitOrders() {
		add(o.Symbol)
	}
	for _, s := range d.led.ActiveStopOrders() {
		add(s.Symbol)
	}
	for _, sym := range d.led.PositionSymbols() {
		add(sym)
	}
	return quotes
}

// sendOrder is the single order-entry path behind the four broker verbs.
func (d *Driver) sendOrder(date int, account, symbol string, direction domain.Direction, offset domain.Offset, price, volume decimal.Decimal, isStop bool, comments string) {
	order, ok := d.led.SubmitOrder(date, account, symbol, direction, offset, price, volume, isStop, comments)
	if !ok {
		return
	}
	d.orderSent = true
	d.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: order})
}

// Buy opens a long position.
func (d *Driver) Buy(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	d.sendOrder(date, account, symbol, domain.DirectionLong, domain.OffsetOpen, price, volume, isStop, comments)
}

// Sell closes a long position.
func (d *Driver) Sell(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	d.sendOrder(date, account, symbol, domain.DirectionLong, domain.OffsetClose, price, volume, isStop, comments)
}

// SellShort opens a short position.
func (d *Driver) SellShort(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	d.sendOrder(date, account, symbol, domain.DirectionShort, domain.OffsetOpen, price, volume, isStop, comments)
}

// BuyToCover closes a short position.
func (d *Driver) BuyToCover(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	d.sendOrder(date, account, symbol, domain.DirectionShort, domain.OffsetClose, price, volume, isStop, comments)
}
