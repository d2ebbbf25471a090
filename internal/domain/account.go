package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account tracks one cash account.
//
// Invariant: TotalBalance == Available + Frozen after every ledger update.
// Available >= 0 is enforced before order admission, not after: adverse
// price moves between admission and settlement may breach it, which is
// accepted simulator behavior.
type Account struct {
	AccountID string `json:"account_id"`
	Date      int    `json:"date"`
	Gateway   string `json:"gateway"`

	PreBalance   decimal.Decimal `json:"pre_balance"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	Available    decimal.Decimal `json:"available"`
	Frozen       decimal.Decimal `json:"frozen"`
	Holding      decimal.Decimal `json:"holding"`
}

// VerifyInvariant panics when the balance identity is broken by more than
// the given tick tolerance.
func (a *Account) VerifyInvariant(date int, tolerance decimal.Decimal) {
	diff := a.TotalBalance.Sub(a.Available.Add(a.Frozen)).Abs()
	if diff.GreaterThan(tolerance) {
		panic(fmt.Sprintf("ACCOUNT_INVARIANT_BALANCE_MISMATCH: bar=%d account=%s total=%s available=%s frozen=%s",
			date, a.AccountID, a.TotalBalance, a.Available, a.Frozen))
	}
}
