package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SymbolParams carries the contract parameters used by matching and the
// ledger: multiplier, minimum price tick and margin rate.
type SymbolParams struct {
	Multiplier decimal.Decimal
	PriceTick  decimal.Decimal
	Margin     decimal.Decimal
}

var symbolParams = map[string]SymbolParams{
	"STOCK_SH": {Multiplier: decimal.NewFromInt(1), PriceTick: decimal.NewFromFloat(0.01), Margin: decimal.NewFromInt(1)},
	"STOCK_SZ": {Multiplier: decimal.NewFromInt(1), PriceTick: decimal.NewFromFloat(0.01), Margin: decimal.NewFromInt(1)},
	"IF":       {Multiplier: decimal.NewFromInt(300), PriceTick: decimal.NewFromFloat(0.2), Margin: decimal.NewFromFloat(0.2)},
	"IC":       {Multiplier: decimal.NewFromInt(200), PriceTick: decimal.NewFromFloat(0.2), Margin: decimal.NewFromFloat(0.2)},
	"RB":       {Multiplier: decimal.NewFromInt(10), PriceTick: decimal.NewFromInt(1), Margin: decimal.NewFromFloat(0.2)},
}

// GetSymbolParams returns the contract parameters for a full symbol code
// like "600000.SH" or "IF2012.CFFEX". The second return value is false for
// unknown products; callers must skip the symbol for the bar, not crash.
func GetSymbolParams(symbol string) (SymbolParams, bool) {
	code, suffix, found := strings.Cut(symbol, ".")
	if !found {
		return SymbolParams{}, false
	}

	var key string
	switch strings.ToUpper(suffix) {
	case "SH":
		key = "STOCK_SH"
	case "SZ":
		key = "STOCK_SZ"
	default:
		key = strings.ToUpper(strings.TrimRight(code, "0123456789"))
	}

	p, ok := symbolParams[key]
	return p, ok
}

// GetExchange infers the exchange code from the symbol suffix.
func GetExchange(symbol string) string {
	_, suffix, found := strings.Cut(symbol, ".")
	if !found {
		return ""
	}
	switch strings.ToUpper(suffix) {
	case "SH":
		return ExchangeSSE
	case "SZ":
		return ExchangeSZSE
	default:
		return strings.ToUpper(suffix)
	}
}

// GetSymbolType maps a symbol to the key used by slippage and commission
// schedules.
func GetSymbolType(symbol string) string {
	switch GetExchange(symbol) {
	case ExchangeSSE:
		return SymbolTypeStockSH
	case ExchangeSZSE:
		return SymbolTypeStockSZ
	default:
		return SymbolTypeFutures
	}
}

// RoundTo rounds value to the nearest multiple of target in decimal space,
// avoiding spurious crossing mismatches from binary-float rounding.
func RoundTo(value, target decimal.Decimal) decimal.Decimal {
	if target.IsZero() {
		return value
	}
	return value.Div(target).Round(0).Mul(target)
}

// RoundLot rounds an order volume to the exchange's lot convention: stock
// OPEN orders trade in board lots of 100, futures volumes are whole
// contracts.
func RoundLot(exchange string, offset Offset, volume decimal.Decimal) decimal.Decimal {
	switch exchange {
	case ExchangeSSE, ExchangeSZSE:
		if offset == OffsetOpen {
			lot := decimal.NewFromInt(100)
			return volume.Div(lot).Floor().Mul(lot)
		}
		return volume.Abs()
	default:
		return volume.Floor()
	}
}
