package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
	"backtest_go/internal/event"
	"backtest_go/internal/infra/marketdata"
)

type recordedOrder struct {
	verb   string
	symbol string
	price  decimal.Decimal
	volume decimal.Decimal
}

type recordingBroker struct {
	orders []recordedOrder
}

func (b *recordingBroker) Buy(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	b.orders = append(b.orders, recordedOrder{"buy", symbol, price, volume})
}

func (b *recordingBroker) Sell(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	b.orders = append(b.orders, recordedOrder{"sell", symbol, price, volume})
}

func (b *recordingBroker) SellShort(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	b.orders = append(b.orders, recordedOrder{"sellshort", symbol, price, volume})
}

func (b *recordingBroker) BuyToCover(date int, account, symbol string, price, volume decimal.Decimal, isStop bool, comments string) {
	b.orders = append(b.orders, recordedOrder{"buytocover", symbol, price, volume})
}

func TestBuyHold_EntersOnceAtFirstClose(t *testing.T) {
	data := marketdata.NewTable()
	data.Add(domain.Bar{
		Symbol: "600000.SH", Date: 20190102,
		Open: decimal.RequireFromString("10.00"), High: decimal.RequireFromString("10.05"),
		Low: decimal.RequireFromString("9.95"), Close: decimal.RequireFromString("10.00"),
		Volume: decimal.NewFromInt(1000),
	})

	s := NewBuyHold("acc_0", []string{"600000.SH", "000001.SZ"}, decimal.NewFromInt(100), data)
	broker := &recordingBroker{}
	s.Init(broker)

	s.HandleBar(event.Event{Kind: event.KindBar, Date: 20190102}, broker)

	// 000001.SZ has no data and is skipped
	if len(broker.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(broker.orders))
	}
	o := broker.orders[0]
	if o.verb != "buy" || o.symbol != "600000.SH" {
		t.Errorf("unexpected order: %+v", o)
	}
	if !o.price.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected entry at the close 10.00, got %s", o.price)
	}
	if !o.volume.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected volume 100, got %s", o.volume)
	}

	// second bar: already entered, nothing happens
	s.HandleBar(event.Event{Kind: event.KindBar, Date: 20190103}, broker)
	if len(broker.orders) != 1 {
		t.Errorf("strategy re-entered: %d orders", len(broker.orders))
	}
}

func TestBuyHold_InitResetsEntry(t *testing.T) {
	data := marketdata.NewTable()
	data.Add(domain.Bar{
		Symbol: "600000.SH", Date: 20190102,
		Open: decimal.RequireFromString("10.00"), High: decimal.RequireFromString("10.00"),
		Low: decimal.RequireFromString("10.00"), Close: decimal.RequireFromString("10.00"),
		Volume: decimal.NewFromInt(1000),
	})

	s := NewBuyHold("acc_0", []string{"600000.SH"}, decimal.NewFromInt(100), data)
	broker := &recordingBroker{}

	s.Init(broker)
	s.HandleBar(event.Event{Kind: event.KindBar, Date: 20190102}, broker)
	s.Init(broker)
	s.HandleBar(event.Event{Kind: event.KindBar, Date: 20190102}, broker)

	if len(broker.orders) != 2 {
		t.Errorf("expected a fresh entry after re-init, got %d orders", len(broker.orders))
	}
}
