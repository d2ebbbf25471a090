package storage

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
	"backtest_go/internal/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store open failed: %v", err)
	}
	return store
}

func TestBars_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	bars := []domain.Bar{
		{
			Symbol: "600000.SH", Date: 20190102,
			Open:   decimal.RequireFromString("10.00"),
			High:   decimal.RequireFromString("10.20"),
			Low:    decimal.RequireFromString("9.90"),
			Close:  decimal.RequireFromString("10.10"),
			Volume: decimal.NewFromInt(100_000),
		},
		{
			Symbol: "600000.SH", Date: 20190103,
			Open:   decimal.RequireFromString("10.10"),
			High:   decimal.RequireFromString("10.30"),
			Low:    decimal.RequireFromString("10.05"),
			Close:  decimal.RequireFromString("10.25"),
			Volume: decimal.NewFromInt(90_000),
		},
	}
	if err := store.SaveBars(bars); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	table, err := store.LoadBars([]string{"600000.SH"}, 20190101, 20191231)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got, ok := table.Bar("600000.SH", 20190102)
	if !ok {
		t.Fatal("saved bar not loaded")
	}
	if !got.Close.Equal(bars[0].Close) || !got.Low.Equal(bars[0].Low) {
		t.Errorf("bar fields changed across the round trip: %+v", got)
	}

	dates := table.Dates("600000.SH")
	if len(dates) != 2 || dates[0] != 20190102 || dates[1] != 20190103 {
		t.Errorf("expected both dates back, got %v", dates)
	}
}

func TestBars_WindowFilter(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveBars([]domain.Bar{
		{Symbol: "600000.SH", Date: 20181228, Close: decimal.NewFromInt(9), Volume: decimal.NewFromInt(1)},
		{Symbol: "600000.SH", Date: 20190102, Close: decimal.NewFromInt(10), Volume: decimal.NewFromInt(1)},
	}); err != nil {
		t.Fatal(err)
	}

	table, err := store.LoadBars([]string{"600000.SH"}, 20190101, 20191231)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Bar("600000.SH", 20181228); ok {
		t.Error("bar outside the window must not load")
	}
	if _, ok := table.Bar("600000.SH", 20190102); !ok {
		t.Error("bar inside the window missing")
	}
}

func TestExRights_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	records := map[int]domain.ExRights{
		20190201: {
			CashDividend:    decimal.RequireFromString("0.10"),
			BonusShareRatio: decimal.RequireFromString("0.5"),
		},
	}
	if err := store.SaveExRights("600000.SH", records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.LoadExRights(20190101)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	rec, ok := loaded["600000.SH"][20190201]
	if !ok {
		t.Fatal("saved record not loaded")
	}
	if !rec.CashDividend.Equal(decimal.RequireFromString("0.10")) {
		t.Errorf("expected dividend 0.10, got %s", rec.CashDividend)
	}
	if !rec.BonusShareRatio.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("expected bonus ratio 0.5, got %s", rec.BonusShareRatio)
	}

	// records before the window start stay out
	early, err := store.LoadExRights(20190301)
	if err != nil {
		t.Fatal(err)
	}
	if len(early) != 0 {
		t.Errorf("expected no records at or after 20190301, got %v", early)
	}
}

func TestHistory_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	hist := &ledger.History{
		Orders: map[int][]domain.Order{
			20190103: {{
				Symbol: "600000.SH", Exchange: domain.ExchangeSSE,
				OrderID: "order_00000001", OrderType: domain.OrderTypeLimit,
				Direction: domain.DirectionLong, Offset: domain.OffsetOpen,
				SymbolType: domain.SymbolTypeStockSH, Account: "acc_0",
				Price:       decimal.RequireFromString("10.00"),
				FilledPrice: decimal.RequireFromString("10.00"),
				OrderVolume: decimal.NewFromInt(100), FilledVolume: decimal.NewFromInt(100),
				Status: domain.StatusAllTraded, OrderDate: 20190102, FilledDate: 20190103,
			}},
		},
		Trades: map[int][]domain.Trade{
			20190103: {{
				Symbol: "600000.SH", Exchange: domain.ExchangeSSE,
				OrderID: "order_00000001", TradeID: "filled_00000001",
				Direction: domain.DirectionLong, Offset: domain.OffsetOpen,
				SymbolType: domain.SymbolTypeStockSH, Account: "acc_0",
				OrderPrice: decimal.RequireFromString("10.00"),
				Price:      decimal.RequireFromString("10.01"),
				Volume:     decimal.NewFromInt(100),
				Commission: decimal.NewFromInt(5),
				Slippage:   decimal.RequireFromString("0.01"),
				Date:       20190103,
			}},
		},
		Positions: map[int][]domain.Position{
			20190103: {{
				Symbol: "600000.SH", Exchange: domain.ExchangeSSE, Account: "acc_0",
				Direction: domain.DirectionLong, SymbolType: domain.SymbolTypeStockSH,
				InitDate:      20190103,
				InitVolume:    decimal.NewFromInt(100), Volume: decimal.NewFromInt(100),
				Frozen:        decimal.NewFromInt(100),
				InitPrice:     decimal.RequireFromString("10.01"), Price: decimal.RequireFromString("10.01"),
				PositionValue: decimal.NewFromInt(1010), PositionValuePre: decimal.NewFromInt(1001),
				PositionPnl:   decimal.NewFromInt(9),
			}},
		},
		Accounts: map[int][]domain.Account{
			20190103: {{
				AccountID:    "acc_0",
				PreBalance:   decimal.NewFromInt(1_000_000),
				TotalBalance: decimal.NewFromInt(999_995),
				Available:    decimal.NewFromInt(998_994),
				Frozen:       decimal.NewFromInt(1001),
				Holding:      decimal.NewFromInt(1001),
			}},
		},
		Commissions: map[int]decimal.Decimal{20190103: decimal.NewFromInt(5)},
	}

	if err := store.SaveHistory(hist); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	positions, err := store.LoadPositions(20190103)
	if err != nil {
		t.Fatalf("load positions failed: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	pos := positions[0]
	want := hist.Positions[20190103][0]
	if pos.Symbol != want.Symbol || pos.Account != want.Account {
		t.Errorf("identity fields changed: %+v", pos)
	}
	if !pos.Volume.Equal(want.Volume) || !pos.Frozen.Equal(want.Frozen) ||
		!pos.Price.Equal(want.Price) || !pos.PositionValue.Equal(want.PositionValue) {
		t.Errorf("numeric fields changed across the round trip: %+v", pos)
	}

	accounts, err := store.LoadAccounts(20190103)
	if err != nil {
		t.Fatalf("load accounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	acc := accounts[0]
	if acc.AccountID != "acc_0" {
		t.Errorf("expected acc_0, got %s", acc.AccountID)
	}
	if !acc.TotalBalance.Equal(decimal.NewFromInt(999_995)) ||
		!acc.Available.Equal(decimal.NewFromInt(998_994)) ||
		!acc.Frozen.Equal(decimal.NewFromInt(1001)) {
		t.Errorf("balances changed across the round trip: %+v", acc)
	}
	if !acc.TotalBalance.Equal(acc.Available.Add(acc.Frozen)) {
		t.Error("balance identity broken after reload")
	}

	// absent bar dates load empty, not as an error
	none, err := store.LoadPositions(20190104)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no positions for an absent bar, got %d", len(none))
	}
}
