package matching

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/ledger"
)

// Engine crosses active limit and stop orders against the current bar's
// open/high/low. It runs two passes per bar, limit orders first, both
// against the same bar snapshot; fills reach the ledger synchronously
// before the resulting TRADE event reaches any other subscriber.
type Engine struct {
	led *ledger.Ledger
	bus *event.Dispatcher
	log *slog.Logger
}

// New creates a matching engine bound to a ledger and dispatcher.
func New(led *ledger.Ledger, bus *event.Dispatcher, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{led: led, bus: bus, log: log}
}

// MatchLimitOrders evaluates every order active at pass start against the
// bar. An order either fills completely or gaps through; a gapped order is
// withdrawn and chased with a fresh order at the bar's open, which is only
// evaluated on the next bar (orders admitted mid-pass are not revisited,
// so a chase can never loop within one bar).
func (e *Engine) MatchLimitOrders(date int, quotes map[string]domain.Bar) {
	for _, order := range e.led.ActiveLimitOrders() {
		if order.Status == domain.StatusSubmitting {
			continue
		}
		bar, ok := quotes[order.Symbol]
		if !ok || bar.Suspended() {
			continue
		}
		params, ok := domain.GetSymbolParams(order.Symbol)
		if !ok {
			continue
		}

		low := domain.RoundTo(bar.Low, params.PriceTick)
		high := domain.RoundTo(bar.High, params.PriceTick)
		open := domain.RoundTo(bar.Open, params.PriceTick)

		buySide := (order.Direction == domain.DirectionLong && order.Offset == domain.OffsetOpen) ||
			(order.Direction == domain.DirectionShort && order.Offset == domain.OffsetClose)
		sellSide := (order.Direction == domain.DirectionShort && order.Offset == domain.OffsetOpen) ||
			(order.Direction == domain.DirectionLong && order.Offset == domain.OffsetClose)

		longCross := buySide && low.IsPositive() && order.Price.GreaterThanOrEqual(low)
		shortCross := sellSide && high.IsPositive() && order.Price.LessThanOrEqual(high)

		if longCross || shortCross {
			// The order receives the better of its limit and the bar's
			// open: price improvement on favorable gaps.
			var price decimal.Decimal
			if longCross {
				price = decimal.Min(order.Price, open)
			} else {
				price = decimal.Max(order.Price, open)
			}

			filled := e.led.FillOrder(order.OrderID, price, date)
			e.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: filled})
			e.settle(filled, price, params, date)
			continue
		}

		// Gap-through: withdraw and chase at the bar's open so the trading
		// intent survives the adverse gap.
		withdrawn := e.led.WithdrawOrder(order.OrderID, date)
		e.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: withdrawn})
		e.log.Info("order gapped through, chasing at open",
			slog.String("symbol", order.Symbol),
			slog.String("order_id", order.OrderID),
			slog.Int("date", date))

		chase := withdrawn.Reissued(e.led.NextOrderID(), open, withdrawn.OrderVolume, date)
		e.led.AdmitReissue(chase)
		e.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: chase})
	}
}

// MatchStopOrders triggers waiting stop orders against the same bar
// snapshot. A triggered stop converts directly into an ALL_TRADED order;
// untriggered stops are left unchanged for the next bar.
func (e *Engine) MatchStopOrders(date int, quotes map[string]domain.Bar) {
	for _, stop := range e.led.ActiveStopOrders() {
		bar, ok := quotes[stop.Symbol]
		if !ok || bar.Suspended() {
			continue
		}
		params, ok := domain.GetSymbolParams(stop.Symbol)
		if !ok {
			continue
		}

		low := domain.RoundTo(bar.Low, params.PriceTick)
		high := domain.RoundTo(bar.High, params.PriceTick)
		open := domain.RoundTo(bar.Open, params.PriceTick)

		longCross := stop.Direction == domain.DirectionLong && stop.Price.LessThanOrEqual(high)
		shortCross := stop.Direction == domain.DirectionShort && stop.Price.GreaterThanOrEqual(low)
		if !longCross && !shortCross {
			continue
		}

		var price decimal.Decimal
		if longCross {
			price = decimal.Max(stop.Price, open)
		} else {
			price = decimal.Min(stop.Price, open)
		}

		synthesized := domain.Order{
			Symbol:       stop.Symbol,
			Exchange:     stop.Exchange,
			OrderID:      e.led.NextOrderID(),
			OrderType:    domain.OrderTypeLimit,
			Direction:    stop.Direction,
			Offset:       stop.Offset,
			SymbolType:   stop.SymbolType,
			Account:      stop.Account,
			Price:        stop.Price,
			FilledPrice:  price,
			OrderVolume:  stop.OrderVolume,
			FilledVolume: stop.OrderVolume,
			Status:       domain.StatusAllTraded,
			OrderDate:    date,
			FilledDate:   date,
			Comments:     stop.Comments,
		}

		e.led.TriggerStop(stop.OrderID, synthesized, date)
		e.bus.Publish(event.Event{Kind: event.KindOrder, Date: date, Data: synthesized})
		e.settle(synthesized, price, params, date)
	}
}

// settle synthesizes the fill record, applies it to the ledger, and only
// then publishes the TRADE event, so subscribers always observe
// post-settlement state and the final post-slippage price.
func (e *Engine) settle(o domain.Order, price decimal.Decimal, params domain.SymbolParams, date int) {
	trade := domain.Trade{
		Symbol:     o.Symbol,
		Exchange:   o.Exchange,
		OrderID:    o.OrderID,
		TradeID:    e.led.NextTradeID(),
		Direction:  o.Direction,
		Offset:     o.Offset,
		SymbolType: o.SymbolType,
		Account:    o.Account,
		OrderPrice: o.Price,
		Price:      price,
		Volume:     o.OrderVolume,
		Multiplier: params.Multiplier,
		PriceTick:  params.PriceTick,
		Margin:     params.Margin,
		Date:       date,
		Comments:   o.Comments,
	}

	applied := e.led.ApplyTrade(trade)
	e.bus.Publish(event.Event{Kind: event.KindTrade, Date: date, Data: applied})
}
