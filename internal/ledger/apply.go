package ledger

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
)

// balanceTolerance bounds the rounding drift allowed by the
// total == available + frozen identity.
var balanceTolerance = decimal.New(1, -6)

// ApplyTrade is the single entry point through which every fill reaches
// account and position state. It applies slippage and commission, updates
// the position and the owning account, and records the trade into the
// current bar's scratch maps. The returned trade carries the final
// post-slippage price and the fee fields.
//
// A missing commission or slippage schedule is a configuration error that
// the driver verifies before the run starts; hitting one here means the
// ledger would corrupt, so it halts.
func (l *Ledger) ApplyTrade(t domain.Trade) domain.Trade {
	slip, ok := l.slippage[slippageKey(t.SymbolType)]
	if !ok {
		panic(fmt.Sprintf("LEDGER_MISSING_SLIPPAGE_SCHEDULE: bar=%d symbol=%s type=%s",
			t.Date, t.Symbol, t.SymbolType))
	}
	comm, ok := l.commission[t.SymbolType]
	if !ok {
		panic(fmt.Sprintf("LEDGER_MISSING_COMMISSION_SCHEDULE: bar=%d symbol=%s type=%s",
			t.Date, t.Symbol, t.SymbolType))
	}

	fillPrice := t.Price
	t.Price = applySlippage(t.Price, t.Direction, t.Offset, slip)
	t.Slippage = t.Price.Sub(fillPrice)

	notional := t.Price.Mul(t.Volume)
	switch t.Offset {
	case domain.OffsetOpen:
		t.Commission = decimal.Max(comm.Min, notional.Mul(comm.Open))
	case domain.OffsetClose:
		t.Commission = decimal.Max(comm.Min, notional.Mul(comm.Close.Add(comm.Tax)))
		t.Tax = notional.Mul(comm.Tax)
	}

	l.updatePosition(t)
	l.updateAccount(t)

	l.barTrades = append(l.barTrades, t)
	l.barCommission = l.barCommission.Add(t.Commission)

	if pos := l.positions[t.Symbol]; pos != nil {
		pos.VerifyInvariant(t.Date)
	}
	if acc := l.accounts[t.Account]; acc != nil {
		acc.VerifyInvariant(t.Date, balanceTolerance)
	}

	l.log.Info("trade applied",
		slog.String("symbol", t.Symbol),
		slog.String("order_id", t.OrderID),
		slog.Int("date", t.Date),
		slog.String("price", t.Price.String()),
		slog.String("volume", t.Volume.String()))

	return t
}

// applySlippage shifts the fill price adverse to the trader: buying costs
// more, selling receives less.
func applySlippage(price decimal.Decimal, direction domain.Direction, offset domain.Offset, rule SlippageRule) decimal.Decimal {
	switch rule.Mode {
	case domain.SlippageFix:
		switch {
		case offset == domain.OffsetOpen && direction == domain.DirectionLong:
			return price.Add(rule.Value)
		case offset == domain.OffsetOpen && direction == domain.DirectionShort:
			return price.Sub(rule.Value)
		case offset == domain.OffsetClose && direction == domain.DirectionLong:
			return price.Sub(rule.Value)
		case offset == domain.OffsetClose && direction == domain.DirectionShort:
			return price.Add(rule.Value)
		}
	case domain.SlippagePercent:
		one := decimal.NewFromInt(1)
		if offset == domain.OffsetOpen {
			return price.Mul(one.Add(rule.Value))
		}
		if offset == domain.OffsetClose {
			return price.Mul(one.Sub(rule.Value))
		}
	}
	return price
}

func (l *Ledger) updatePosition(t domain.Trade) {
	pos := l.positions[t.Symbol]
	if pos == nil {
		if t.Offset == domain.OffsetClose {
			panic(fmt.Sprintf("LEDGER_CLOSE_WITHOUT_POSITION: bar=%d symbol=%s", t.Date, t.Symbol))
		}
		notional := t.Price.Mul(t.Volume)
		pos = &domain.Position{
			Symbol:           t.Symbol,
			Exchange:         t.Exchange,
			Account:          t.Account,
			TradeID:          t.TradeID,
			OrderID:          t.OrderID,
			Direction:        t.Direction,
			Offset:           t.Offset,
			SymbolType:       t.SymbolType,
			InitDate:         t.Date,
			Date:             t.Date,
			InitVolume:       t.Volume,
			Volume:           t.Volume,
			Frozen:           t.Volume, // T+1: same-bar buys cannot be sold
			InitPrice:        t.Price,
			Price:            t.Price,
			Multiplier:       t.Multiplier,
			PriceTick:        t.PriceTick,
			Margin:           t.Margin,
			PositionValue:    notional,
			PositionValuePre: notional,
		}
		l.positions[t.Symbol] = pos
		l.positionSyms = append(l.positionSyms, t.Symbol)
		return
	}

	costBalance := pos.Price.Mul(pos.Volume)
	tradeBalance := t.Price.Mul(t.Volume)

	switch t.Offset {
	case domain.OffsetOpen:
		total := pos.Volume.Add(t.Volume)
		pos.Price = costBalance.Add(tradeBalance).Div(total)
		pos.Volume = total
		pos.Frozen = pos.Frozen.Add(t.Volume)
	case domain.OffsetClose:
		total := pos.Volume.Sub(t.Volume)
		if total.IsPositive() {
			pos.Price = costBalance.Sub(tradeBalance).Div(total)
		} else {
			pos.Price = decimal.Decimal{}
		}
		pos.Volume = total
	}
	pos.Date = t.Date
}

func (l *Ledger) updateAccount(t domain.Trade) {
	acc := l.accounts[t.Account]
	if acc == nil {
		return
	}
	notional := t.Price.Mul(t.Volume)

	switch t.Offset {
	case domain.OffsetOpen:
		acc.Available = acc.Available.Sub(notional).Sub(t.Commission)
		acc.Frozen = acc.Frozen.Add(notional)
	case domain.OffsetClose:
		acc.Available = acc.Available.Add(notional).Sub(t.Commission)
		// Any close clears the whole frozen pool rather than decrementing
		// the closed notional; see DESIGN.md.
		acc.Frozen = decimal.Decimal{}
	}
	acc.TotalBalance = acc.Available.Add(acc.Frozen)
}

// MarkToMarket revalues every position from the supplied close and derives
// each account's total balance from the previous bar's valuations. The
// valuation lags one bar, and calling it twice with the same closes is a
// no-op on the second call.
func (l *Ledger) MarkToMarket(date int, closeOf func(symbol string) decimal.Decimal) {
	for _, id := range l.accountIDs {
		acc := l.accounts[id]
		acc.Date = date

		hold := decimal.Decimal{}
		held := false
		for _, sym := range l.positionSyms {
			pos := l.positions[sym]
			if pos.Account != id {
				continue
			}
			held = true
			pos.Date = date
			if close := closeOf(sym); close.IsPositive() {
				pos.PositionValue = pos.Volume.Mul(close)
			} else {
				l.log.Info("suspended symbol, valuation carried", slog.String("symbol", sym))
			}
			pos.PositionPnl = pos.PositionValue.Sub(pos.InitVolume.Mul(pos.InitPrice))
			hold = hold.Add(pos.PositionValuePre)
		}

		if held {
			acc.TotalBalance = acc.Available.Add(hold)
			acc.Frozen = hold
			acc.Holding = hold
		} else {
			acc.TotalBalance = acc.Available
			acc.Frozen = decimal.Decimal{}
			acc.Holding = decimal.Decimal{}
		}
		acc.VerifyInvariant(date, balanceTolerance)
	}
}

// UnfreezeDaily lifts T+1 freezes at the start of a new calendar bar.
// Suspended symbols (close sentinel -1) keep their prior freeze.
func (l *Ledger) UnfreezeDaily(closeOf func(symbol string) decimal.Decimal) {
	for _, sym := range l.positionSyms {
		pos := l.positions[sym]
		if closeOf(sym).IsPositive() {
			pos.Frozen = decimal.Decimal{}
		}
	}
}

// PurgeZeroPositions drops fully closed positions from the live map.
func (l *Ledger) PurgeZeroPositions() {
	keep := l.positionSyms[:0]
	for _, sym := range l.positionSyms {
		if l.positions[sym].Volume.IsZero() {
			delete(l.positions, sym)
			continue
		}
		keep = append(keep, sym)
	}
	l.positionSyms = keep
}

// SnapshotBar copies the bar's orders, trades, live positions, accounts
// and commission into the bar-indexed history.
func (l *Ledger) SnapshotBar(date int) {
	l.hist.Orders[date] = append([]domain.Order(nil), l.barOrders...)
	l.hist.Trades[date] = append([]domain.Trade(nil), l.barTrades...)

	positions := make([]domain.Position, 0, len(l.positionSyms))
	for _, sym := range l.positionSyms {
		positions = append(positions, *l.positions[sym])
	}
	l.hist.Positions[date] = positions

	accounts := make([]domain.Account, 0, len(l.accountIDs))
	for _, id := range l.accountIDs {
		accounts = append(accounts, *l.accounts[id])
	}
	l.hist.Accounts[date] = accounts

	l.hist.Commissions[date] = l.barCommission
}

// ResetBar rolls the previous-bar valuations forward and clears the
// per-bar scratch state. Runs once at the end of every bar, after
// SnapshotBar.
func (l *Ledger) ResetBar() {
	for _, sym := range l.positionSyms {
		pos := l.positions[sym]
		pos.PositionValuePre = pos.PositionValue
	}
	for _, id := range l.accountIDs {
		acc := l.accounts[id]
		acc.PreBalance = acc.TotalBalance
	}
	l.barOrders = nil
	l.barTrades = nil
	l.barCommission = decimal.Decimal{}
}
