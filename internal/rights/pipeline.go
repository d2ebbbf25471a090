package rights

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/ledger"
)

// Pipeline rewrites open positions and resting orders on a symbol's
// ex-rights date, so nothing ever trades or is valued at stale
// pre-adjustment terms. It runs before matching on every bar.
type Pipeline struct {
	records map[string]map[int]domain.ExRights
	led     *ledger.Ledger
	bus     *event.Dispatcher
	log     *slog.Logger
}

// New creates a pipeline over the per-symbol, per-date ex-rights records
// supplied by the data collaborator.
func New(records map[string]map[int]domain.ExRights, led *ledger.Ledger, bus *event.Dispatcher, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if records == nil {
		records = map[string]map[int]domain.ExRights{}
	}
	return &Pipeline{records: records, led: led, bus: bus, log: log}
}

func (p *Pipeline) lookup(symbol string, date int) (domain.ExRights, bool) {
	byDate, ok := p.records[symbol]
	if !ok {
		return domain.ExRights{}, false
	}
	rec, ok := byDate[date]
	return rec, ok
}

// adjusted applies the ex-rights formula:
//
//	price_new  = ((price_old - cash_dividend) + rightsissue_price*rightsissue_ratio)
//	             / (1 + bonus_ratio + conversed_ratio)
//	volume_new = (price_old - cash_dividend) * volume_old / price_new
func adjusted(rec domain.ExRights, priceOld, volumeOld decimal.Decimal) (priceNew, volumeNew decimal.Decimal) {
	one := decimal.NewFromInt(1)
	exBase := priceOld.Sub(rec.CashDividend)
	priceNew = exBase.Add(rec.RightsIssuePrice.Mul(rec.RightsIssueRatio)).
		Div(one.Add(rec.BonusShareRatio).Add(rec.ConversedRatio))
	volumeNew = exBase.Mul(volumeOld).Div(priceNew)
	return priceNew, volumeNew
}

// AdjustPositions rewrites each holding whose symbol goes ex today and
// credits the cash-dividend portion to the owning account.
func (p *Pipeline) AdjustPositions(date int) {
	for _, sym := range p.led.PositionSymbols() {
		rec, ok := p.lookup(sym, date)
		if !ok {
			continue
		}
		pos := p.led.Position(sym)
		if pos == nil || !pos.Volume.IsPositive() {
			continue
		}

		priceOld := pos.PositionValue.Div(pos.Volume)
		priceNew, volumeNew := adjusted(rec, priceOld, pos.Volume)
		dividend := rec.CashDividend.Mul(pos.Volume)

		if acc := p.led.Account(pos.Account); acc != nil {
			acc.Available = acc.Available.Add(dividend)
			acc.TotalBalance = acc.Available.Add(acc.Frozen)
		}
		pos.Price = priceNew
		pos.Volume = volumeNew

		p.log.Info("position adjusted for ex-rights",
			slog.String("symbol", sym),
			slog.Int("date", date),
			slog.String("price", priceNew.String()),
			slog.String("volume", volumeNew.String()))
	}
}

// AdjustOrders withdraws each resting limit order whose symbol goes ex
// today and re-admits a replacement carrying the adjusted price and
// volume through the normal admission path.
func (p *Pipeline) AdjustOrders(date int) {
	for _, order := range p.led.ActiveLimitOrders() {
		rec, ok := p.lookup(order.Symbol, date)
		if !ok {
			continue
		}

		priceNew, volumeNew := adjusted(rec, order.Price, order.OrderVolume)

		withdrawn := p.led.WithdrawOrder(order.OrderID, date)
		p.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: withdrawn})

		replacement, ok := p.led.SubmitOrder(date, order.Account, order.Symbol,
			order.Direction, order.Offset, priceNew, volumeNew, false, order.Comments)
		if !ok {
			p.log.Info("ex-rights replacement rejected",
				slog.String("symbol", order.Symbol), slog.Int("date", date))
			continue
		}
		p.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: replacement})
	}
}
