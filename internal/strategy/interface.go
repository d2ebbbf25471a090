package strategy

import (
	"github.com/shopspring/decimal"

	"backtest_go/internal/event"
)

// Broker is the order-entry surface the driver exposes to strategies.
// The four verbs map onto direction/offset pairs: Buy opens long, Sell
// closes long, SellShort opens short, BuyToCover closes short. Prices are
// tick-rounded and volumes lot-rounded on admission.
type Broker interface {
	Buy(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string)
	Sell(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string)
	SellShort(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string)
	BuyToCover(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string)
}

// Strategy is the callback interface the simulation driver invokes. All
// callbacks run synchronously on the driver's goroutine, after corporate
// actions and matching for the bar have completed, so a strategy never
// sees pre-adjustment prices or stale un-crossed orders.
type Strategy interface {
	// Init runs once before the first bar.
	Init(b Broker)

	// HandleBar is called once per bar and may send orders through b.
	HandleBar(ev event.Event, b Broker)

	// HandleOrder observes every order state change.
	HandleOrder(ev event.Event)

	// HandleTrade observes every fill after the ledger has settled it.
	HandleTrade(ev event.Event)

	// HandlePortfolioRisk is called instead of portfolio inaction: it only
	// runs on bars where HandleBar sent no order.
	HandlePortfolioRisk(ev event.Event, b Broker)
}
