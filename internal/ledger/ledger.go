package ledger

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
)

// SlippageRule configures simulated execution cost per symbol family
// ("stock", "futures").
type SlippageRule struct {
	Mode  domain.SlippageMode
	Value decimal.Decimal
}

// CommissionRule configures fees per symbol type. CloseToday is parsed and
// validated but never applied; see DESIGN.md.
type CommissionRule struct {
	Tax        decimal.Decimal
	Open       decimal.Decimal
	Close      decimal.Decimal
	CloseToday decimal.Decimal
	Min        decimal.Decimal
}

// AccountSeed is the configured starting equity of one account.
type AccountSeed struct {
	Name   string
	Equity decimal.Decimal
}

// History is the bar-indexed record of everything the run produced, keyed
// by YYYYMMDD bar date. It is handed to storage after the run for the
// external reporting collaborator.
type History struct {
	Orders      map[int][]domain.Order
	Trades      map[int][]domain.Trade
	Positions   map[int][]domain.Position
	Accounts    map[int][]domain.Account
	Commissions map[int]decimal.Decimal
}

// Ledger owns all account, position, order and trade state for one
// backtest run. The driver constructs exactly one and passes it by
// reference, and all mutation happens through its methods on a single
// goroutine.
type Ledger struct {
	accounts   map[string]*domain.Account
	accountIDs []string

	positions    map[string]*domain.Position
	positionSyms []string

	limitOrders    map[string]domain.Order
	activeLimitIDs []string
	stopOrders     map[string]domain.StopOrder
	activeStopIDs  []string

	// per-bar scratch, cleared by ResetBar
	barOrders     []domain.Order
	barTrades     []domain.Trade
	barCommission decimal.Decimal

	hist History

	blacklist  map[string]struct{}
	slippage   map[string]SlippageRule
	commission map[string]CommissionRule

	universeSize int
	orderSeq     int
	tradeSeq     int
	stopSeq      int

	log *slog.Logger
}

// New creates a ledger seeded with the configured accounts and schedules.
func New(seeds []AccountSeed, slippage map[string]SlippageRule, commission map[string]CommissionRule, blacklist []string, universeSize int, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	l := &Ledger{
		accounts:    make(map[string]*domain.Account),
		positions:   make(map[string]*domain.Position),
		limitOrders: make(map[string]domain.Order),
		stopOrders:  make(map[string]domain.StopOrder),
		blacklist:   make(map[string]struct{}),
		slippage:    slippage,
		commission:  commission,
		hist: History{
			Orders:      make(map[int][]domain.Order),
			Trades:      make(map[int][]domain.Trade),
			Positions:   make(map[int][]domain.Position),
			Accounts:    make(map[int][]domain.Account),
			Commissions: make(map[int]decimal.Decimal),
		},
		universeSize: universeSize,
		log:          log,
	}
	for _, s := range seeds {
		l.accounts[s.Name] = &domain.Account{
			AccountID:    s.Name,
			Available:    s.Equity,
			TotalBalance: s.Equity,
			PreBalance:   s.Equity,
		}
		l.accountIDs = append(l.accountIDs, s.Name)
	}
	for _, sym := range blacklist {
		l.blacklist[sym] = struct{}{}
	}
	return l
}

// SetUniverseSize updates the divisor of the per-symbol cash share used by
// the admission gate when the universe is refreshed.
func (l *Ledger) SetUniverseSize(n int) {
	if n > 0 {
		l.universeSize = n
	}
}

// NextOrderID returns a deterministic order id. Ids are sequential per run
// so two identical runs produce byte-identical order and trade streams.
func (l *Ledger) NextOrderID() string {
	l.orderSeq++
	return fmt.Sprintf("order_%08d", l.orderSeq)
}

// NextTradeID returns a deterministic trade id.
func (l *Ledger) NextTradeID() string {
	l.tradeSeq++
	return fmt.Sprintf("filled_%08d", l.tradeSeq)
}

func (l *Ledger) nextStopID() string {
	l.stopSeq++
	return fmt.Sprintf("stoporder_%08d", l.stopSeq)
}

// Account returns the live account, or nil.
func (l *Ledger) Account(id string) *domain.Account {
	return l.accounts[id]
}

// Position returns the live position for a symbol, or nil.
func (l *Ledger) Position(symbol string) *domain.Position {
	return l.positions[symbol]
}

// Order returns an order from the full registry.
func (l *Ledger) Order(id string) (domain.Order, bool) {
	o, ok := l.limitOrders[id]
	return o, ok
}

// StopOrder returns a stop order from the full registry.
func (l *Ledger) StopOrder(id string) (domain.StopOrder, bool) {
	s, ok := l.stopOrders[id]
	return s, ok
}

// ActiveLimitOrders returns the active limit orders in admission order.
func (l *Ledger) ActiveLimitOrders() []domain.Order {
	out := make([]domain.Order, 0, len(l.activeLimitIDs))
	for _, id := range l.activeLimitIDs {
		out = append(out, l.limitOrders[id])
	}
	return out
}

// ActiveStopOrders returns the waiting stop orders in admission order.
func (l *Ledger) ActiveStopOrders() []domain.StopOrder {
	out := make([]domain.StopOrder, 0, len(l.activeStopIDs))
	for _, id := range l.activeStopIDs {
		out = append(out, l.stopOrders[id])
	}
	return out
}

// PositionSymbols returns the live position symbols in creation order.
func (l *Ledger) PositionSymbols() []string {
	return append([]string(nil), l.positionSyms...)
}

// History returns the bar-indexed run record.
func (l *Ledger) History() *History {
	return &l.hist
}

// BarCommission returns the commission accumulated on the current bar.
func (l *Ledger) BarCommission() decimal.Decimal {
	return l.barCommission
}

// SubmitOrder runs the admission gate and, when it passes, registers a new
// limit or stop order. Rejection is silent and local: the order is never
// created and no event is published; the caller only sees ok == false.
func (l *Ledger) SubmitOrder(date int, account, symbol string, direction domain.Direction, offset domain.Offset, price, volume decimal.Decimal, isStop bool, comments string) (domain.Order, bool) {
	params, ok := domain.GetSymbolParams(symbol)
	if !ok {
		l.log.Info("unknown symbol params, order skipped", slog.String("symbol", symbol))
		return domain.Order{}, false
	}
	price = domain.RoundTo(price, params.PriceTick)

	if !l.priorRiskControl(account, symbol, offset, price, volume, params) {
		l.log.Info("order rejected by admission gate",
			slog.String("symbol", symbol), slog.String("account", account))
		return domain.Order{}, false
	}

	exchange := domain.GetExchange(symbol)
	volume = domain.RoundLot(exchange, offset, volume)
	if !volume.IsPositive() {
		return domain.Order{}, false
	}

	if isStop {
		stop := domain.StopOrder{
			Symbol:      symbol,
			Exchange:    exchange,
			OrderID:     l.nextStopID(),
			Direction:   direction,
			Offset:      offset,
			SymbolType:  domain.GetSymbolType(symbol),
			Account:     account,
			Price:       price,
			OrderVolume: volume,
			Status:      domain.StopStatusWaiting,
			OrderDate:   date,
			Comments:    comments,
		}
		l.stopOrders[stop.OrderID] = stop
		l.activeStopIDs = append(l.activeStopIDs, stop.OrderID)
		return domain.Order{
			Symbol: stop.Symbol, OrderID: stop.OrderID, OrderType: domain.OrderTypeStop,
			Direction: direction, Offset: offset, Price: price, OrderVolume: volume,
			Account: account, OrderDate: date, Comments: comments,
		}, true
	}

	order := domain.Order{
		Symbol:      symbol,
		Exchange:    exchange,
		OrderID:     l.NextOrderID(),
		OrderType:   domain.OrderTypeLimit,
		Direction:   direction,
		Offset:      offset,
		SymbolType:  domain.GetSymbolType(symbol),
		Account:     account,
		Price:       price,
		OrderVolume: volume,
		Status:      domain.StatusNotTraded,
		OrderDate:   date,
		Comments:    comments,
	}
	l.registerLimitOrder(order)
	return order, true
}

// AdmitReissue registers a chase or ex-rights replacement order without a
// second pass through the admission gate; the intent was already admitted.
func (l *Ledger) AdmitReissue(o domain.Order) {
	l.registerLimitOrder(o)
}

func (l *Ledger) registerLimitOrder(o domain.Order) {
	l.limitOrders[o.OrderID] = o
	l.activeLimitIDs = append(l.activeLimitIDs, o.OrderID)
	l.barOrders = append(l.barOrders, o)
}

// FillOrder moves an active limit order to ALL_TRADED at price.
func (l *Ledger) FillOrder(id string, price decimal.Decimal, date int) domain.Order {
	o := l.limitOrders[id].Filled(price, date)
	l.limitOrders[id] = o
	l.removeActiveLimit(id)
	l.barOrders = append(l.barOrders, o)
	return o
}

// WithdrawOrder cancels an active limit order.
func (l *Ledger) WithdrawOrder(id string, date int) domain.Order {
	o := l.limitOrders[id].Withdrawn(date)
	l.limitOrders[id] = o
	l.removeActiveLimit(id)
	l.barOrders = append(l.barOrders, o)
	return o
}

// TriggerStop marks a waiting stop order TRIGGERED and registers the
// synthesized ALL_TRADED order that replaces it.
func (l *Ledger) TriggerStop(stopID string, synthesized domain.Order, date int) domain.StopOrder {
	s := l.stopOrders[stopID].Triggered(date)
	l.stopOrders[stopID] = s
	for i, id := range l.activeStopIDs {
		if id == stopID {
			l.activeStopIDs = append(l.activeStopIDs[:i:i], l.activeStopIDs[i+1:]...)
			break
		}
	}
	l.limitOrders[synthesized.OrderID] = synthesized
	l.barOrders = append(l.barOrders, synthesized)
	return s
}

func (l *Ledger) removeActiveLimit(id string) {
	for i, cur := range l.activeLimitIDs {
		if cur == id {
			l.activeLimitIDs = append(l.activeLimitIDs[:i:i], l.activeLimitIDs[i+1:]...)
			return
		}
	}
}

// priorRiskControl is the admission gate: blacklist, cash sufficiency for
// OPEN, position sufficiency for CLOSE.
func (l *Ledger) priorRiskControl(account, symbol string, offset domain.Offset, price, volume decimal.Decimal, params domain.SymbolParams) bool {
	if _, hit := l.blacklist[symbol]; hit {
		return false
	}

	acc := l.accounts[account]
	if acc == nil {
		return false
	}

	if offset == domain.OffsetOpen {
		// Cash must cover the margin notional with a 10% buffer for fees
		// and slippage, measured against this symbol's share of cash.
		notional := volume.Mul(price).Mul(params.Multiplier).Mul(params.Margin)
		share := acc.Available.Div(decimal.NewFromInt(int64(l.universeSize)))
		if notional.Div(decimal.NewFromFloat(0.90)).GreaterThan(share) {
			return false
		}
	}

	if offset == domain.OffsetClose {
		pos := l.positions[symbol]
		if pos == nil || pos.Account != account {
			return false
		}
		if volume.GreaterThan(pos.Available()) {
			return false
		}
	}

	return true
}

// slippageKey maps a symbol type like "stock_sh" onto the slippage
// schedule family ("stock", "futures").
func slippageKey(symbolType string) string {
	family, _, found := strings.Cut(symbolType, "_")
	if !found {
		return symbolType
	}
	return family
}
