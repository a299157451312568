package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stock_simulator/internal/feature/trading/domain/entity"
)

// AccountModel is the GORM model for the cash_accounts table.
type AccountModel struct {
	MemberID  uint  `gorm:"primaryKey;autoIncrement:false"`
	Balance   int64 `gorm:"not null"`
	Version   int64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (AccountModel) TableName() string { return "cash_accounts" }

func (m *AccountModel) toEntity() entity.CashAccount {
	return entity.CashAccount{MemberID: m.MemberID, Balance: m.Balance, Version: m.Version}
}

// PositionModel is the GORM model for the positions table.
// (member_id, symbol) is unique.
type PositionModel struct {
	ID        uint            `gorm:"primaryKey"`
	MemberID  uint            `gorm:"not null;uniqueIndex:idx_member_symbol,priority:1"`
	Symbol    string          `gorm:"size:32;not null;uniqueIndex:idx_member_symbol,priority:2"`
	Quantity  int64           `gorm:"not null"`
	AvgCost   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	CostBasis decimal.Decimal `gorm:"type:decimal(32,8);not null;default:0"`
	BasisQty  int64           `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (PositionModel) TableName() string { return "positions" }

func (m *PositionModel) toEntity() entity.Position {
	return entity.Position{
		MemberID:  m.MemberID,
		Symbol:    m.Symbol,
		Quantity:  m.Quantity,
		AvgCost:   m.AvgCost,
		CostBasis: m.CostBasis,
		BasisQty:  m.BasisQty,
	}
}

// TradeModel is the GORM model for the append-only trades table.
type TradeModel struct {
	Seq              uint            `gorm:"primaryKey"`
	ID               string          `gorm:"size:36;not null;uniqueIndex"`
	MemberID         uint            `gorm:"not null;index:idx_trade_member_time,priority:1"`
	Symbol           string          `gorm:"size:32;not null"`
	Side             string          `gorm:"size:4;not null"`
	Quantity         int64           `gorm:"not null"`
	ExecutionPrice   int64           `gorm:"not null"`
	ExecutedAtMillis int64           `gorm:"not null;index:idx_trade_member_time,priority:2"`
	RealizedPnL      decimal.Decimal `gorm:"type:decimal(24,4);not null"`
}

// TableName returns the table name for GORM.
func (TradeModel) TableName() string { return "trades" }

func tradeModelFromEntity(t entity.TradeRecord) *TradeModel {
	return &TradeModel{
		ID:               t.ID,
		MemberID:         t.MemberID,
		Symbol:           t.Symbol,
		Side:             string(t.Side),
		Quantity:         t.Quantity,
		ExecutionPrice:   t.ExecutionPrice,
		ExecutedAtMillis: t.ExecutedAtMillis,
		RealizedPnL:      t.RealizedPnL,
	}
}

func (m *TradeModel) toEntity() entity.TradeRecord {
	return entity.TradeRecord{
		ID:               m.ID,
		MemberID:         m.MemberID,
		Symbol:           m.Symbol,
		Side:             entity.Side(m.Side),
		Quantity:         m.Quantity,
		ExecutionPrice:   m.ExecutionPrice,
		ExecutedAtMillis: m.ExecutedAtMillis,
		RealizedPnL:      m.RealizedPnL,
	}
}

// Models lists every table of the trading feature for migration.
func Models() []any {
	return []any{&AccountModel{}, &PositionModel{}, &TradeModel{}}
}
