package marketdata

import (
	"testing"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
)

func testBar(symbol string, date int, close string, volume int64) domain.Bar {
	return domain.Bar{
		Symbol: symbol,
		Date:   date,
		Open:   decimal.RequireFromString(close),
		High:   decimal.RequireFromString(close),
		Low:    decimal.RequireFromString(close),
		Close:  decimal.RequireFromString(close),
		Volume: decimal.NewFromInt(volume),
	}
}

func TestTable_AddAndLookup(t *testing.T) {
	table := NewTable()
	table.Add(testBar("600000.SH", 20190102, "10.00", 1000))

	bar, ok := table.Bar("600000.SH", 20190102)
	if !ok {
		t.Fatal("stored bar not found")
	}
	if !bar.Close.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected close 10.00, got %s", bar.Close)
	}

	if _, ok := table.Bar("600000.SH", 20190103); ok {
		t.Error("lookup for a missing date must fail")
	}
}

func TestTable_DropsZeroVolumeBars(t *testing.T) {
	table := NewTable()
	table.Add(testBar("600000.SH", 20190102, "10.00", 0))

	if _, ok := table.Bar("600000.SH", 20190102); ok {
		t.Error("a session without turnover must not be stored")
	}
}

func TestTable_CloseReturnsSentinelWhenAbsent(t *testing.T) {
	table := NewTable()
	table.Add(testBar("600000.SH", 20190102, "10.00", 1000))

	if got := table.Close("600000.SH", 20190103); !got.Equal(decimal.NewFromInt(-1)) {
		t.Errorf("expected -1 sentinel, got %s", got)
	}
	if got := table.Close("000001.SZ", 20190102); !got.Equal(decimal.NewFromInt(-1)) {
		t.Errorf("expected -1 sentinel for unknown symbol, got %s", got)
	}
	if got := table.Close("600000.SH", 20190102); !got.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected 10.00, got %s", got)
	}
}

func TestTable_DatesSorted(t *testing.T) {
	table := NewTable()
	table.Add(testBar("000300.SH", 20190104, "3000", 1000))
	table.Add(testBar("000300.SH", 20190102, "3000", 1000))
	table.Add(testBar("000300.SH", 20190103, "3000", 1000))

	dates := table.Dates("000300.SH")
	want := []int{20190102, 20190103, 20190104}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d", len(want), len(dates))
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("date %d: expected %d, got %d", i, want[i], dates[i])
		}
	}
}

func TestTable_DuplicateDateOverwrites(t *testing.T) {
	table := NewTable()
	table.Add(testBar("600000.SH", 20190102, "10.00", 1000))
	table.Add(testBar("600000.SH", 20190102, "10.50", 2000))

	if got := table.Close("600000.SH", 20190102); !got.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("expected latest close 10.50, got %s", got)
	}
	if n := len(table.Dates("600000.SH")); n != 1 {
		t.Errorf("duplicate date must not grow the axis, got %d entries", n)
	}
}

func TestTable_Symbols(t *testing.T) {
	table := NewTable()
	table.Add(testBar("600000.SH", 20190102, "10.00", 1000))
	table.Add(testBar("000001.SZ", 20190102, "12.00", 1000))

	syms := table.Symbols()
	if len(syms) != 2 || syms[0] != "000001.SZ" || syms[1] != "600000.SH" {
		t.Errorf("expected sorted symbols, got %v", syms)
	}
}
