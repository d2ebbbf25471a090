package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backtest_go/internal/domain"
	"backtest_go/internal/infra/marketdata"
	"backtest_go/internal/ledger"
)

// BarRow is one daily OHLCV row. Suspended sessions carry -1 prices.
type BarRow struct {
	ID     uint            `gorm:"primaryKey"`
	Symbol string          `gorm:"index:idx_bar,unique"`
	Date   int             `gorm:"index:idx_bar,unique"`
	Open   decimal.Decimal `gorm:"type:numeric"`
	High   decimal.Decimal `gorm:"type:numeric"`
	Low    decimal.Decimal `gorm:"type:numeric"`
	Close  decimal.Decimal `gorm:"type:numeric"`
	Volume decimal.Decimal `gorm:"type:numeric"`
}

// ExRightsRow is one corporate-action record keyed by symbol and ex-date.
type ExRightsRow struct {
	ID               uint            `gorm:"primaryKey"`
	Symbol           string          `gorm:"index:idx_exr,unique"`
	Date             int             `gorm:"index:idx_exr,unique"`
	CashDividend     decimal.Decimal `gorm:"type:numeric"`
	BonusShareRatio  decimal.Decimal `gorm:"type:numeric"`
	RightsIssueRatio decimal.Decimal `gorm:"type:numeric"`
	RightsIssuePrice decimal.Decimal `gorm:"type:numeric"`
	ConversedRatio   decimal.Decimal `gorm:"type:numeric"`
}

// OrderRow is one flattened order snapshot, indexed by bar date.
type OrderRow struct {
	ID           uint `gorm:"primaryKey"`
	BarDate      int  `gorm:"index"`
	Symbol       string
	Exchange     string
	OrderID      string
	OrderType    string
	Direction    string
	Offset       string
	SymbolType   string
	Account      string
	Price        decimal.Decimal `gorm:"type:numeric"`
	FilledPrice  decimal.Decimal `gorm:"type:numeric"`
	OrderVolume  decimal.Decimal `gorm:"type:numeric"`
	FilledVolume decimal.Decimal `gorm:"type:numeric"`
	Status       string
	OrderDate    int
	FilledDate   int
	CancelDate   int
	Comments     string
}

// TradeRow is one flattened fill record, indexed by bar date.
type TradeRow struct {
	ID         uint `gorm:"primaryKey"`
	BarDate    int  `gorm:"index"`
	Symbol     string
	Exchange   string
	OrderID    string
	TradeID    string
	Direction  string
	Offset     string
	SymbolType string
	Account    string
	OrderPrice decimal.Decimal `gorm:"type:numeric"`
	Price      decimal.Decimal `gorm:"type:numeric"`
	Volume     decimal.Decimal `gorm:"type:numeric"`
	Commission decimal.Decimal `gorm:"type:numeric"`
	Slippage   decimal.Decimal `gorm:"type:numeric"`
	Tax        decimal.Decimal `gorm:"type:numeric"`
	Multiplier decimal.Decimal `gorm:"type:numeric"`
	PriceTick  decimal.Decimal `gorm:"type:numeric"`
	Margin     decimal.Decimal `gorm:"type:numeric"`
	Comments   string
}

// PositionRow is one flattened end-of-bar position, indexed by bar date.
type PositionRow struct {
	ID               uint `gorm:"primaryKey"`
	BarDate          int  `gorm:"index"`
	Symbol           string
	Exchange         string
	Account          string
	Direction        string
	SymbolType       string
	InitDate         int
	InitVolume       decimal.Decimal `gorm:"type:numeric"`
	Volume           decimal.Decimal `gorm:"type:numeric"`
	Frozen           decimal.Decimal `gorm:"type:numeric"`
	InitPrice        decimal.Decimal `gorm:"type:numeric"`
	Price            decimal.Decimal `gorm:"type:numeric"`
	PositionPnl      decimal.Decimal `gorm:"type:numeric"`
	PositionValue    decimal.Decimal `gorm:"type:numeric"`
	PositionValuePre decimal.Decimal `gorm:"type:numeric"`
}

// AccountRow is one flattened end-of-bar account, indexed by bar date.
type AccountRow struct {
	ID           uint `gorm:"primaryKey"`
	BarDate      int  `gorm:"index"`
	AccountID    string
	PreBalance   decimal.Decimal `gorm:"type:numeric"`
	TotalBalance decimal.Decimal `gorm:"type:numeric"`
	Available    decimal.Decimal `gorm:"type:numeric"`
	Frozen       decimal.Decimal `gorm:"type:numeric"`
	Holding      decimal.Decimal `gorm:"type:numeric"`
}

// Store is the SQLite-backed data collaborator: market data and ex-rights
// in, backtest snapshots out.
type Store struct {
	db *gorm.DB
}

// NewStore opens (and migrates) the database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&BarRow{}, &ExRightsRow{}, &OrderRow{}, &TradeRow{}, &PositionRow{}, &AccountRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveBars bulk-inserts daily bars.
func (s *Store) SaveBars(bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]BarRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, BarRow{
			Symbol: b.Symbol, Date: b.Date,
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	return s.db.Create(&rows).Error
}

// LoadBars reads all bars in [start, end] into an in-memory table.
func (s *Store) LoadBars(symbols []string, start, end int) (*marketdata.Table, error) {
	var rows []BarRow
	err := s.db.
		Where("symbol IN ? AND date >= ? AND date <= ?", symbols, start, end).
		Order("symbol, date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	table := marketdata.NewTable()
	for _, r := range rows {
		table.Add(domain.Bar{
			Symbol: r.Symbol, Date: r.Date,
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
		})
	}
	return table, nil
}

// SaveExRights bulk-inserts corporate-action records.
func (s *Store) SaveExRights(symbol string, byDate map[int]domain.ExRights) error {
	rows := make([]ExRightsRow, 0, len(byDate))
	for date, rec := range byDate {
		rows = append(rows, ExRightsRow{
			Symbol: symbol, Date: date,
			CashDividend:     rec.CashDividend,
			BonusShareRatio:  rec.BonusShareRatio,
			RightsIssueRatio: rec.RightsIssueRatio,
			RightsIssuePrice: rec.RightsIssuePrice,
			ConversedRatio:   rec.ConversedRatio,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.Create(&rows).Error
}

// LoadExRights reads every corporate-action record with an ex-date at or
// after start, keyed by symbol then date.
func (s *Store) LoadExRights(start int) (map[string]map[int]domain.ExRights, error) {
	var rows []ExRightsRow
	if err := s.db.Where("date >= ?", start).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]map[int]domain.ExRights)
	for _, r := range rows {
		byDate, ok := out[r.Symbol]
		if !ok {
			byDate = make(map[int]domain.ExRights)
			out[r.Symbol] = byDate
		}
		byDate[r.Date] = domain.ExRights{
			CashDividend:     r.CashDividend,
			BonusShareRatio:  r.BonusShareRatio,
			RightsIssueRatio: r.RightsIssueRatio,
			RightsIssuePrice: r.RightsIssuePrice,
			ConversedRatio:   r.ConversedRatio,
		}
	}
	return out, nil
}

// SaveHistory persists the four bar-indexed snapshot tables of a finished
// run for the external reporting collaborator.
func (s *Store) SaveHistory(h *ledger.History) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for date, orders := range h.Orders {
			for _, o := range orders {
				row := orderToRow(date, o)
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		for date, trades := range h.Trades {
			for _, t := range trades {
				row := tradeToRow(date, t)
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		for date, positions := range h.Positions {
			for _, p := range positions {
				row := positionToRow(date, p)
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		for date, accounts := range h.Accounts {
			for _, a := range accounts {
				row := accountToRow(date, a)
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadPositions reads back the position snapshot of one bar.
func (s *Store) LoadPositions(barDate int) ([]domain.Position, error) {
	var rows []PositionRow
	if err := s.db.Where("bar_date = ?", barDate).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Position{
			Symbol: r.Symbol, Exchange: r.Exchange, Account: r.Account,
			Direction: domain.Direction(r.Direction), SymbolType: r.SymbolType,
			InitDate: r.InitDate, Date: r.BarDate,
			InitVolume: r.InitVolume, Volume: r.Volume, Frozen: r.Frozen,
			InitPrice: r.InitPrice, Price: r.Price,
			PositionPnl: r.PositionPnl, PositionValue: r.PositionValue, PositionValuePre: r.PositionValuePre,
		})
	}
	return out, nil
}

// LoadAccounts reads back the account snapshot of one bar.
func (s *Store) LoadAccounts(barDate int) ([]domain.Account, error) {
	var rows []AccountRow
	if err := s.db.Where("bar_date = ?", barDate).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Account{
			AccountID: r.AccountID, Date: r.BarDate,
			PreBalance: r.PreBalance, TotalBalance: r.TotalBalance,
			Available: r.Available, Frozen: r.Frozen, Holding: r.Holding,
		})
	}
	return out, nil
}

func orderToRow(date int, o domain.Order) OrderRow {
	return OrderRow{
		BarDate: date, Symbol: o.Symbol, Exchange: o.Exchange, OrderID: o.OrderID,
		OrderType: string(o.OrderType), Direction: string(o.Direction), Offset: string(o.Offset),
		SymbolType: o.SymbolType, Account: o.Account,
		Price: o.Price, FilledPrice: o.FilledPrice,
		OrderVolume: o.OrderVolume, FilledVolume: o.FilledVolume,
		Status: string(o.Status), OrderDate: o.OrderDate, FilledDate: o.FilledDate,
		CancelDate: o.CancelDate, Comments: o.Comments,
	}
}

func tradeToRow(date int, t domain.Trade) TradeRow {
	return TradeRow{
		BarDate: date, Symbol: t.Symbol, Exchange: t.Exchange, OrderID: t.OrderID,
		TradeID: t.TradeID, Direction: string(t.Direction), Offset: string(t.Offset),
		SymbolType: t.SymbolType, Account: t.Account,
		OrderPrice: t.OrderPrice, Price: t.Price, Volume: t.Volume,
		Commission: t.Commission, Slippage: t.Slippage, Tax: t.Tax,
		Multiplier: t.Multiplier, PriceTick: t.PriceTick, Margin: t.Margin,
		Comments: t.Comments,
	}
}

func positionToRow(date int, p domain.Position) PositionRow {
	return PositionRow{
		BarDate: date, Symbol: p.Symbol, Exchange: p.Exchange, Account: p.Account,
		Direction: string(p.Direction), SymbolType: p.SymbolType,
		InitDate: p.InitDate, InitVolume: p.InitVolume, Volume: p.Volume, Frozen: p.Frozen,
		InitPrice: p.InitPrice, Price: p.Price,
		PositionPnl: p.PositionPnl, PositionValue: p.PositionValue, PositionValuePre: p.PositionValuePre,
	}
}

func accountToRow(date int, a domain.Account) AccountRow {
	return AccountRow{
		BarDate: date, AccountID: a.AccountID,
		PreBalance: a.PreBalance, TotalBalance: a.TotalBalance,
		Available: a.Available, Frozen: a.Frozen, Holding: a.Holding,
	}
}
