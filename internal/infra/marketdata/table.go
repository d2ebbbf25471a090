package marketdata

import (
	"sort"

	"github.com/shopspring/decimal"

	"backtest_go/internal/domain"
)

// suspendedSentinel marks missing or suspended data: absence is always
// signaled by -1, never by a zero value.
var suspendedSentinel = decimal.NewFromInt(-1)

// Table is the in-memory OHLCV store for one run, indexed by
// (symbol, YYYYMMDD date). The data collaborator fills it once before the
// loop starts; the core only reads it.
type Table struct {
	bars  map[string]map[int]domain.Bar
	dates map[string][]int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		bars:  make(map[string]map[int]domain.Bar),
		dates: make(map[string][]int),
	}
}

// Add inserts one bar. Bars with zero volume are dropped: a session
// without turnover cannot fill anything.
func (t *Table) Add(b domain.Bar) {
	if !b.Volume.IsPositive() {
		return
	}
	byDate, ok := t.bars[b.Symbol]
	if !ok {
		byDate = make(map[int]domain.Bar)
		t.bars[b.Symbol] = byDate
	}
	if _, dup := byDate[b.Date]; !dup {
		t.dates[b.Symbol] = append(t.dates[b.Symbol], b.Date)
	}
	byDate[b.Date] = b
}

// Bar returns the bar for (symbol, date).
func (t *Table) Bar(symbol string, date int) (domain.Bar, bool) {
	b, ok := t.bars[symbol][date]
	return b, ok
}

// Close returns the close for (symbol, date), or the -1 sentinel when the
// symbol has no data for the session.
func (t *Table) Close(symbol string, date int) decimal.Decimal {
	b, ok := t.bars[symbol][date]
	if !ok {
		return suspendedSentinel
	}
	return b.Close
}

// Dates returns the sorted bar-date axis for a symbol. For the benchmark
// this is the clock that drives the whole simulation.
func (t *Table) Dates(symbol string) []int {
	out := append([]int(nil), t.dates[symbol]...)
	sort.Ints(out)
	return out
}

// Symbols returns every symbol present, sorted.
func (t *Table) Symbols() []string {
	out := make([]string, 0, len(t.bars))
	for sym := range t.bars {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
