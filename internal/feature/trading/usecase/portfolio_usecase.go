package usecase

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"stock_simulator/internal/feature/trading/domain/entity"
)

const (
	// DefaultTradeLimit はデフォルトの約定履歴返却件数です。
	DefaultTradeLimit = 50
	// MaxTradeLimit は約定履歴の最大返却件数です。
	MaxTradeLimit = 500
)

// AccountRepository は口座と保有状況の読み取り、および口座開設を行います。
type AccountRepository interface {
	// CreateAccount inserts the account unless one exists and reports whether it was created.
	CreateAccount(ctx context.Context, acc entity.CashAccount) (bool, error)
	// FindAccount returns ErrAccountNotFound when the member has no account.
	FindAccount(ctx context.Context, memberID uint) (entity.CashAccount, error)
	ListPositions(ctx context.Context, memberID uint) ([]entity.Position, error)
	// ListTrades returns at most limit trades, newest first.
	ListTrades(ctx context.Context, memberID uint, limit int) ([]entity.TradeRecord, error)
}

// PositionValuation は最新価格で評価したポジションです。
type PositionValuation struct {
	entity.Position
	// PriceAvailable が false の場合、評価は平均取得単価で行われます。
	PriceAvailable bool
	LastPrice      int64
	MarketValue    decimal.Decimal
	UnrealizedPnL  decimal.Decimal
}

// Portfolio は会員の現金とポジションの評価です。
type Portfolio struct {
	Cash          int64
	Positions     []PositionValuation
	MarketValue   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	TotalEquity   decimal.Decimal
}

// PortfolioUsecase は口座開設と保有資産の照会を扱います。
type PortfolioUsecase struct {
	repo        AccountRepository
	prices      PriceReader
	initialCash int64
}

// NewPortfolioUsecase は PortfolioUsecase を生成します。
func NewPortfolioUsecase(repo AccountRepository, prices PriceReader, initialCash int64) *PortfolioUsecase {
	return &PortfolioUsecase{repo: repo, prices: prices, initialCash: initialCash}
}

// OpenAccount は初期資金で口座を開設します。既に口座がある場合はそれを返し、created は false です。
func (u *PortfolioUsecase) OpenAccount(ctx context.Context, memberID uint) (acc entity.CashAccount, created bool, err error) {
	created, err = u.repo.CreateAccount(ctx, entity.CashAccount{MemberID: memberID, Balance: u.initialCash, Version: 1})
	if err != nil {
		return entity.CashAccount{}, false, err
	}
	if created {
		slog.Info("account opened", "memberID", memberID, "balance", u.initialCash)
	}
	acc, err = u.repo.FindAccount(ctx, memberID)
	if err != nil {
		return entity.CashAccount{}, false, err
	}
	return acc, created, nil
}

// GetAccount は会員の口座を返します。
func (u *PortfolioUsecase) GetAccount(ctx context.Context, memberID uint) (entity.CashAccount, error) {
	return u.repo.FindAccount(ctx, memberID)
}

// GetPortfolio は保有ポジションを最新価格で評価します。
func (u *PortfolioUsecase) GetPortfolio(ctx context.Context, memberID uint) (Portfolio, error) {
	acc, err := u.repo.FindAccount(ctx, memberID)
	if err != nil {
		return Portfolio{}, err
	}
	positions, err := u.repo.ListPositions(ctx, memberID)
	if err != nil {
		return Portfolio{}, err
	}

	out := Portfolio{
		Cash:          acc.Balance,
		Positions:     make([]PositionValuation, 0, len(positions)),
		MarketValue:   decimal.Zero,
		UnrealizedPnL: decimal.Zero,
	}
	for _, p := range positions {
		v := PositionValuation{Position: p}
		if lp, ok := u.prices.Get(p.Symbol); ok && lp.Price > 0 {
			v.PriceAvailable = true
			v.LastPrice = lp.Price
			v.MarketValue = p.MarketValue(lp.Price)
			v.UnrealizedPnL = p.UnrealizedPnL(lp.Price)
		} else {
			v.MarketValue = p.AvgCost.Mul(decimal.NewFromInt(p.Quantity))
			v.UnrealizedPnL = decimal.Zero
		}
		out.MarketValue = out.MarketValue.Add(v.MarketValue)
		out.UnrealizedPnL = out.UnrealizedPnL.Add(v.UnrealizedPnL)
		out.Positions = append(out.Positions, v)
	}
	out.TotalEquity = out.MarketValue.Add(decimal.NewFromInt(acc.Balance))
	return out, nil
}

// ListTrades は約定履歴を新しい順に返します。
func (u *PortfolioUsecase) ListTrades(ctx context.Context, memberID uint, limit int) ([]entity.TradeRecord, error) {
	if limit <= 0 || limit > MaxTradeLimit {
		limit = DefaultTradeLimit
	}
	return u.repo.ListTrades(ctx, memberID, limit)
}
