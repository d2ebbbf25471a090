package domain

import "github.com/shopspring/decimal"

// Trade is an immutable fill record. It is created once per successful
// crossing and never mutated afterwards; the ledger keeps it in the
// bar-indexed trade history.
type Trade struct {
	Symbol     string    `json:"symbol"`
	Exchange   string    `json:"exchange"`
	OrderID    string    `json:"order_id"`
	TradeID    string    `json:"trade_id"`
	Direction  Direction `json:"direction"`
	Offset     Offset    `json:"offset"`
	SymbolType string    `json:"symbol_type"`
	Account    string    `json:"account"`

	OrderPrice decimal.Decimal `json:"order_price"`
	Price      decimal.Decimal `json:"price"` // fill price, post slippage
	Volume     decimal.Decimal `json:"volume"`
	Commission decimal.Decimal `json:"commission"`
	Slippage   decimal.Decimal `json:"slippage"`
	Tax        decimal.Decimal `json:"tax"`

	Multiplier decimal.Decimal `json:"multiplier"`
	PriceTick  decimal.Decimal `json:"price_tick"`
	Margin     decimal.Decimal `json:"margin"`

	Date     int    `json:"date"`
	Comments string `json:"comments"`
}

// Notional returns price * volume.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Volume)
}
