// Package adapters provides the gorm-backed ledger for the trading feature.
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_simulator/internal/feature/trading/domain/entity"
	"stock_simulator/internal/feature/trading/usecase"
)

// ledgerMySQL is a gorm implementation of usecase.Ledger and usecase.AccountRepository.
type ledgerMySQL struct {
	db *gorm.DB
}

// Compile-time checks.
var (
	_ usecase.Ledger            = (*ledgerMySQL)(nil)
	_ usecase.AccountRepository = (*ledgerMySQL)(nil)
	_ usecase.LedgerTx          = (*ledgerTx)(nil)
)

// NewLedgerMySQL creates a new instance of ledgerMySQL.
func NewLedgerMySQL(db *gorm.DB) *ledgerMySQL {
	return &ledgerMySQL{db: db}
}

// WithinTx runs fn in one database transaction. Any error from fn rolls back every write.
func (l *ledgerMySQL) WithinTx(ctx context.Context, fn func(tx usecase.LedgerTx) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx})
	})
}

// CreateAccount inserts the account if the member has none yet.
func (l *ledgerMySQL) CreateAccount(ctx context.Context, acc entity.CashAccount) (bool, error) {
	m := &AccountModel{MemberID: acc.MemberID, Balance: acc.Balance, Version: acc.Version}
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindAccount retrieves the member's cash account.
func (l *ledgerMySQL) FindAccount(ctx context.Context, memberID uint) (entity.CashAccount, error) {
	return findAccount(l.db.WithContext(ctx), memberID)
}

// ListPositions returns all open positions of the member ordered by symbol.
func (l *ledgerMySQL) ListPositions(ctx context.Context, memberID uint) ([]entity.Position, error) {
	var models []PositionModel
	if err := l.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("symbol ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Position, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, nil
}

// ListTrades returns the newest trades of the member first.
func (l *ledgerMySQL) ListTrades(ctx context.Context, memberID uint, limit int) ([]entity.TradeRecord, error) {
	var models []TradeModel
	q := l.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("executed_at_millis DESC").
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]entity.TradeRecord, len(models))
	for i := range models {
		out[i] = models[i].toEntity()
	}
	return out, nil
}

// ledgerTx is the transaction-scoped view handed to the unit of work.
type ledgerTx struct {
	db *gorm.DB
}

func (t *ledgerTx) Account(ctx context.Context, memberID uint) (entity.CashAccount, error) {
	return findAccount(t.db.WithContext(ctx), memberID)
}

func (t *ledgerTx) Position(ctx context.Context, memberID uint, symbol string) (entity.Position, bool, error) {
	var m PositionModel
	err := t.db.WithContext(ctx).Where("member_id = ? AND symbol = ?", memberID, symbol).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Position{}, false, nil
	}
	if err != nil {
		return entity.Position{}, false, err
	}
	return m.toEntity(), true, nil
}

// SaveAccount は acc.Version が保存値と一致する場合のみ残高を更新し、バージョンを進めます。
func (t *ledgerTx) SaveAccount(ctx context.Context, acc entity.CashAccount) error {
	res := t.db.WithContext(ctx).
		Model(&AccountModel{}).
		Where("member_id = ? AND version = ?", acc.MemberID, acc.Version).
		Updates(map[string]any{"balance": acc.Balance, "version": acc.Version + 1})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrConflict
	}
	return nil
}

// SavePosition は数量0のポジションを削除し、それ以外は (member_id, symbol) で upsert します。
func (t *ledgerTx) SavePosition(ctx context.Context, p entity.Position) error {
	db := t.db.WithContext(ctx)
	if p.Quantity == 0 {
		return db.Where("member_id = ? AND symbol = ?", p.MemberID, p.Symbol).Delete(&PositionModel{}).Error
	}
	basis, basisQty := p.Basis()
	m := &PositionModel{MemberID: p.MemberID, Symbol: p.Symbol, Quantity: p.Quantity, AvgCost: p.AvgCost, CostBasis: basis, BasisQty: basisQty}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "member_id"}, {Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "avg_cost", "cost_basis", "basis_qty", "updated_at"}),
	}).Create(m).Error
}

func (t *ledgerTx) AppendTrade(ctx context.Context, tr entity.TradeRecord) error {
	return t.db.WithContext(ctx).Create(tradeModelFromEntity(tr)).Error
}

func findAccount(db *gorm.DB, memberID uint) (entity.CashAccount, error) {
	var m AccountModel
	if err := db.Where("member_id = ?", memberID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.CashAccount{}, usecase.ErrAccountNotFound
		}
		return entity.CashAccount{}, err
	}
	return m.toEntity(), nil
}
