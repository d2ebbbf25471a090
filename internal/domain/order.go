package domain

import "github.com/shopspring/decimal"

// Order is a resting limit (or triggered stop) order.
//
// Orders never fill partially: FilledVolume is either zero or OrderVolume.
// Every mutation goes through a transition method that takes the old value
// and returns the new one, so each state change is auditable against the
// order state machine.
type Order struct {
	Symbol     string    `json:"symbol"`
	Exchange   string    `json:"exchange"`
	OrderID    string    `json:"order_id"`
	OrderType  OrderType `json:"order_type"`
	Direction  Direction `json:"direction"`
	Offset     Offset    `json:"offset"`
	SymbolType string    `json:"symbol_type"`
	Account    string    `json:"account"`

	Price        decimal.Decimal `json:"price"`
	FilledPrice  decimal.Decimal `json:"filled_price"`
	OrderVolume  decimal.Decimal `json:"order_volume"`
	FilledVolume decimal.Decimal `json:"filled_volume"`

	Status     Status `json:"status"`
	OrderDate  int    `json:"order_date"`
	FilledDate int    `json:"filled_date"`
	CancelDate int    `json:"cancel_date"`
	Comments   string `json:"comments"`
}

// IsActive reports whether the order can still trade.
func (o Order) IsActive() bool {
	return o.Status == StatusSubmitting || o.Status == StatusNotTraded
}

// Filled returns the order after a full fill at price on date.
func (o Order) Filled(price decimal.Decimal, date int) Order {
	o.FilledPrice = price
	o.FilledVolume = o.OrderVolume
	o.FilledDate = date
	o.Status = StatusAllTraded
	return o
}

// Withdrawn returns the order after cancellation on date.
func (o Order) Withdrawn(date int) Order {
	o.CancelDate = date
	o.Status = StatusWithdraw
	return o
}

// Reissued returns a fresh order carrying the same trading intent under a
// new id, re-priced for the chase policy or a corporate-action adjustment.
func (o Order) Reissued(id string, price, volume decimal.Decimal, date int) Order {
	o.OrderID = id
	o.Price = price
	o.OrderVolume = volume
	o.FilledPrice = decimal.Decimal{}
	o.FilledVolume = decimal.Decimal{}
	o.OrderDate = date
	o.FilledDate = 0
	o.CancelDate = 0
	o.Status = StatusNotTraded
	return o
}

// StopOrder is a stop watch condition. While WAITING it is not a real
// order; on trigger the matching engine synthesizes a filled Order from it.
type StopOrder struct {
	Symbol     string    `json:"symbol"`
	Exchange   string    `json:"exchange"`
	OrderID    string    `json:"order_id"`
	Direction  Direction `json:"direction"`
	Offset     Offset    `json:"offset"`
	SymbolType string    `json:"symbol_type"`
	Account    string    `json:"account"`

	Price       decimal.Decimal `json:"price"`
	OrderVolume decimal.Decimal `json:"order_volume"`

	Status      StopStatus `json:"status"`
	OrderDate   int        `json:"order_date"`
	TriggerDate int        `json:"trigger_date"`
	CancelDate  int        `json:"cancel_date"`
	Comments    string     `json:"comments"`
}

// Triggered returns the stop order after its trigger fired on date.
func (s StopOrder) Triggered(date int) StopOrder {
	s.TriggerDate = date
	s.Status = StopStatusTriggered
	return s
}

// Cancelled returns the stop order after an external cancel on date.
func (s StopOrder) Cancelled(date int) StopOrder {
	s.CancelDate = date
	s.Status = StopStatusCancelled
	return s
}
