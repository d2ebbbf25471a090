package domain

// Run modes.
const (
	RunModeBacktest = "backtesting"
	RunModeLive     = "live"
)

// Bar intervals.
const (
	IntervalDaily  = "d"
	IntervalMinute = "1m"
)

// Direction is the trade direction of an order, trade or position.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Offset distinguishes opening from closing trades.
type Offset string

const (
	OffsetOpen       Offset = "OPEN"
	OffsetClose      Offset = "CLOSE"
	OffsetCloseToday Offset = "CLOSE_TODAY"
)

// Status is the limit-order lifecycle state.
type Status string

const (
	StatusSubmitting Status = "SUBMITTING"
	StatusNotTraded  Status = "NOT_TRADED"
	StatusPartTraded Status = "PART_TRADED"
	StatusAllTraded  Status = "ALL_TRADED"
	StatusWithdraw   Status = "WITHDRAW"
)

// StopStatus is the stop-order lifecycle state. A stop never fills
// directly; TRIGGERED means it was converted into a filled limit order.
type StopStatus string

const (
	StopStatusWaiting   StopStatus = "WAITING"
	StopStatusTriggered StopStatus = "TRIGGERED"
	StopStatusCancelled StopStatus = "CANCELLED"
)

// OrderType tags the admission path an order came through.
type OrderType string

const (
	OrderTypeLimit OrderType = "limit"
	OrderTypeStop  OrderType = "stop"
)

// SlippageMode selects how simulated execution cost is computed.
type SlippageMode string

const (
	SlippageFix     SlippageMode = "fix"
	SlippagePercent SlippageMode = "percent"
)

// Exchange codes.
const (
	ExchangeSSE   = "SSE"
	ExchangeSZSE  = "SZSE"
	ExchangeCFFEX = "CFFEX"
	ExchangeSHFE  = "SHFE"
)

// Symbol types key the commission schedule; the slippage schedule keys on
// the family prefix ("stock", "futures").
const (
	SymbolTypeStockSH = "stock_sh"
	SymbolTypeStockSZ = "stock_sz"
	SymbolTypeFutures = "futures"
)
