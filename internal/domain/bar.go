package domain

import "github.com/shopspring/decimal"

// Bar is one OHLCV session for a symbol. Date is YYYYMMDD. Suspended
// sessions carry -1 prices; absence of data is never encoded as zero.
type Bar struct {
	Symbol string          `json:"symbol"`
	Date   int             `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Suspended reports whether the session carries the -1 no-trading
// sentinel. Suspended bars never cross orders and never revalue holdings.
func (b Bar) Suspended() bool {
	return b.Close.IsNegative() || !b.Volume.IsPositive()
}

// ExRights is one corporate-action record effective on its ex-date.
// Ratios are per share; RightsIssuePrice is the subscription price of the
// rights issue.
type ExRights struct {
	CashDividend     decimal.Decimal `json:"cash_dividend"`
	BonusShareRatio  decimal.Decimal `json:"bonus_share_ratio"`
	RightsIssueRatio decimal.Decimal `json:"rightsissue_ratio"`
	RightsIssuePrice decimal.Decimal `json:"rightsissue_price"`
	ConversedRatio   decimal.Decimal `json:"conversed_ratio"`
}
