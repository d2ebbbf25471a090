package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Position is one (account, symbol) holding.
//
// Invariant: 0 <= Frozen <= Volume. The ledger removes a position from its
// live map once Volume reaches zero.
type Position struct {
	Symbol     string    `json:"symbol"`
	Exchange   string    `json:"exchange"`
	Account    string    `json:"account"`
	TradeID    string    `json:"trade_id"`
	OrderID    string    `json:"order_id"`
	Direction  Direction `json:"direction"`
	Offset     Offset    `json:"offset"`
	SymbolType string    `json:"symbol_type"`

	InitDate int `json:"init_date"`
	Date     int `json:"date"`

	InitVolume decimal.Decimal `json:"init_volume"`
	Volume     decimal.Decimal `json:"volume"`
	Frozen     decimal.Decimal `json:"frozen"`
	InitPrice  decimal.Decimal `json:"init_price"`
	Price      decimal.Decimal `json:"price"` // cost after fills / ex-rights

	PositionPnl      decimal.Decimal `json:"position_pnl"`
	PositionValue    decimal.Decimal `json:"position_value"`
	PositionValuePre decimal.Decimal `json:"position_value_pre"`

	Multiplier decimal.Decimal `json:"multiplier"`
	PriceTick  decimal.Decimal `json:"price_tick"`
	Margin     decimal.Decimal `json:"margin"`
}

// VerifyInvariant panics if the frozen bookkeeping is corrupted. Continuing
// past a broken position would silently corrupt every later bar.
func (p *Position) VerifyInvariant(date int) {
	if p.Frozen.IsNegative() {
		panic(fmt.Sprintf("POSITION_INVARIANT_NEGATIVE_FROZEN: bar=%d symbol=%s frozen=%s",
			date, p.Symbol, p.Frozen))
	}
	if p.Frozen.GreaterThan(p.Volume) {
		panic(fmt.Sprintf("POSITION_INVARIANT_FROZEN_EXCEEDS_VOLUME: bar=%d symbol=%s frozen=%s volume=%s",
			date, p.Symbol, p.Frozen, p.Volume))
	}
}

// Available returns the sellable volume (total minus frozen).
func (p *Position) Available() decimal.Decimal {
	return p.Volume.Sub(p.Frozen)
}
