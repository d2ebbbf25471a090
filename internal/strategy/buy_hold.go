package strategy

import (
	"github.com/shopspring/decimal"

	"backtest_go/internal/event"
	"backtest_go/internal/infra/marketdata"
)

// BuyHold is a minimal reference strategy: on its first bar it buys a
// fixed volume of every universe symbol at that bar's close, then holds.
// It doubles as the wiring example for the Strategy interface.
type BuyHold struct {
	account  string
	universe []string
	volume   decimal.Decimal
	data     *marketdata.Table

	entered bool
}

// NewBuyHold creates the strategy for one account over a universe.
func NewBuyHold(account string, universe []string, volume decimal.Decimal, data *marketdata.Table) *BuyHold {
	return &BuyHold{account: account, universe: universe, volume: volume, data: data}
}

func (s *BuyHold) Init(Broker) {
	s.entered = false
}

func (s *BuyHold) HandleBar(ev event.Event, b Broker) {
	if s.entered {
		return
	}
	for _, sym := range s.universe {
		close := s.data.Close(sym, ev.Date)
		if !close.IsPositive() {
			continue
		}
		b.Buy(ev.Date, s.account, sym, close, s.volume, false, "buy and hold entry")
	}
	s.entered = true
}

func (s *BuyHold) HandleOrder(event.Event) {}

func (s *BuyHold) HandleTrade(event.Event) {}

func (s *BuyHold) HandlePortfolioRisk(event.Event, Broker) {}
