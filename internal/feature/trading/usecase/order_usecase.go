package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stock_simulator/internal/feature/trading/domain"
	"stock_simulator/internal/feature/trading/domain/entity"
	"stock_simulator/internal/shared/marketdata"
)

// PriceReader は最新価格の参照先です。
type PriceReader interface {
	Get(symbol string) (marketdata.LatestPrice, bool)
}

// MarketCalendar は取引時間の判定を行います。
type MarketCalendar interface {
	IsOpen(t time.Time) bool
}

// LedgerTx は1つのトランザクション内での口座・ポジション・約定履歴の操作です。
type LedgerTx interface {
	// Account returns ErrAccountNotFound when the member has no account.
	Account(ctx context.Context, memberID uint) (entity.CashAccount, error)
	// Position reports false when nothing is held.
	Position(ctx context.Context, memberID uint, symbol string) (entity.Position, bool, error)
	// SaveAccount writes the balance if the stored version still equals acc.Version,
	// otherwise returns ErrConflict.
	SaveAccount(ctx context.Context, acc entity.CashAccount) error
	// SavePosition upserts the position, deleting it when the quantity is zero.
	SavePosition(ctx context.Context, p entity.Position) error
	AppendTrade(ctx context.Context, t entity.TradeRecord) error
}

// Ledger は口座・ポジション・約定履歴を1つの作業単位で更新します。
// fn がエラーを返した場合、いずれの変更も反映されません。
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// Config は注文執行の設定です。
type Config struct {
	// InitialCash は口座開設時の残高です。
	InitialCash int64
	// PriceStaleness が正の場合、イベント時刻がこれより古い価格は利用不可とみなします。
	PriceStaleness time.Duration
	// CommitAttempts は ErrConflict 時のコミット試行回数の上限です。
	CommitAttempts int
}

// DefaultConfig はデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{InitialCash: 10_000_000, CommitAttempts: 3}
}

// LoadConfigFromEnv は環境変数から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	if n, err := strconv.ParseInt(os.Getenv("INITIAL_CASH"), 10, 64); err == nil && n >= 0 {
		cfg.InitialCash = n
	}
	if d, err := time.ParseDuration(os.Getenv("PRICE_STALENESS")); err == nil && d > 0 {
		cfg.PriceStaleness = d
	}
	if n, err := strconv.Atoi(os.Getenv("COMMIT_ATTEMPTS")); err == nil && n > 0 {
		cfg.CommitAttempts = n
	}
	return cfg
}

// ExecutionResult は注文の執行結果です。
type ExecutionResult struct {
	Executed       bool
	ExecutionPrice int64
	Message        string
	Trade          entity.TradeRecord
}

// OrderUsecase は最新価格での成行注文を執行します。
type OrderUsecase struct {
	prices   PriceReader
	calendar MarketCalendar
	ledger   Ledger
	locks    *MemberLock
	cfg      Config

	now   func() time.Time
	newID func() string
}

// NewOrderUsecase は OrderUsecase を生成します。locks が nil の場合は新しく作成します。
func NewOrderUsecase(prices PriceReader, calendar MarketCalendar, ledger Ledger, locks *MemberLock, cfg Config) *OrderUsecase {
	if locks == nil {
		locks = NewMemberLock()
	}
	if cfg.CommitAttempts <= 0 {
		cfg.CommitAttempts = DefaultConfig().CommitAttempts
	}
	return &OrderUsecase{
		prices:   prices,
		calendar: calendar,
		ledger:   ledger,
		locks:    locks,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ExecuteBuy は最新価格で quantity 株を買い付けます。
func (u *OrderUsecase) ExecuteBuy(ctx context.Context, memberID uint, symbol string, quantity int64) (ExecutionResult, error) {
	price, now, err := u.precheck(symbol, quantity)
	if err != nil {
		return ExecutionResult{}, err
	}
	cost, ok := mulInt64(price, quantity)
	if !ok {
		return ExecutionResult{}, fmt.Errorf("%w: order value overflows", ErrInvalidQuantity)
	}

	trade := entity.TradeRecord{
		MemberID:         memberID,
		Symbol:           symbol,
		Side:             entity.SideBuy,
		Quantity:         quantity,
		ExecutionPrice:   price,
		ExecutedAtMillis: now.UnixMilli(),
		RealizedPnL:      decimal.Zero,
	}
	err = u.commit(ctx, memberID, func(tx LedgerTx) error {
		acc, err := tx.Account(ctx, memberID)
		if errors.Is(err, ErrAccountNotFound) {
			// 口座がない場合は残高0として扱う
			return &InsufficientFundsError{Balance: 0, Required: cost}
		}
		if err != nil {
			return err
		}
		if acc.Balance < cost {
			return &InsufficientFundsError{Balance: acc.Balance, Required: cost}
		}

		pos, held, err := tx.Position(ctx, memberID, symbol)
		if err != nil {
			return err
		}
		if !held {
			pos = entity.Position{MemberID: memberID, Symbol: symbol, AvgCost: decimal.Zero, CostBasis: decimal.Zero}
		}
		basis, basisQty := pos.Basis()
		pos.CostBasis, pos.BasisQty = domain.AddToBasis(basis, basisQty, pos.Quantity, quantity, price)
		pos.AvgCost = domain.AvgCostOf(pos.CostBasis, pos.BasisQty)
		pos.Quantity += quantity

		acc.Balance -= cost
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := tx.SavePosition(ctx, pos); err != nil {
			return err
		}
		trade.ID = u.newID()
		return tx.AppendTrade(ctx, trade)
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	slog.Info("order executed", "memberID", memberID, "side", trade.Side, "symbol", symbol, "quantity", quantity, "price", price)
	return ExecutionResult{
		Executed:       true,
		ExecutionPrice: price,
		Message:        fmt.Sprintf("bought %d %s at %d", quantity, symbol, price),
		Trade:          trade,
	}, nil
}

// ExecuteSell は最新価格で quantity 株を売却します。平均取得単価は変わりません。
func (u *OrderUsecase) ExecuteSell(ctx context.Context, memberID uint, symbol string, quantity int64) (ExecutionResult, error) {
	price, now, err := u.precheck(symbol, quantity)
	if err != nil {
		return ExecutionResult{}, err
	}
	proceeds, ok := mulInt64(price, quantity)
	if !ok {
		return ExecutionResult{}, fmt.Errorf("%w: order value overflows", ErrInvalidQuantity)
	}

	trade := entity.TradeRecord{
		MemberID:         memberID,
		Symbol:           symbol,
		Side:             entity.SideSell,
		Quantity:         quantity,
		ExecutionPrice:   price,
		ExecutedAtMillis: now.UnixMilli(),
	}
	err = u.commit(ctx, memberID, func(tx LedgerTx) error {
		pos, held, err := tx.Position(ctx, memberID, symbol)
		if err != nil {
			return err
		}
		if !held || pos.Quantity == 0 {
			return ErrNoSuchPosition
		}
		if pos.Quantity < quantity {
			return &InsufficientQuantityError{Held: pos.Quantity, Requested: quantity}
		}

		acc, err := tx.Account(ctx, memberID)
		if err != nil {
			return err
		}
		if acc.Balance > math.MaxInt64-proceeds {
			return fmt.Errorf("%w: balance overflows", ErrInvalidQuantity)
		}
		acc.Balance += proceeds
		// 取得原価は据え置き、数量だけを減らす
		pos.CostBasis, pos.BasisQty = pos.Basis()
		trade.RealizedPnL = domain.RealizedPnL(pos.CostBasis, pos.BasisQty, quantity, price)
		pos.Quantity -= quantity

		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}
		if err := tx.SavePosition(ctx, pos); err != nil {
			return err
		}
		trade.ID = u.newID()
		return tx.AppendTrade(ctx, trade)
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	slog.Info("order executed", "memberID", memberID, "side", trade.Side, "symbol", symbol, "quantity", quantity, "price", price, "realizedPnL", trade.RealizedPnL.String())
	return ExecutionResult{
		Executed:       true,
		ExecutionPrice: price,
		Message:        fmt.Sprintf("sold %d %s at %d", quantity, symbol, price),
		Trade:          trade,
	}, nil
}

// precheck は数量・取引時間・価格を順に検証し、執行価格を返します。
func (u *OrderUsecase) precheck(symbol string, quantity int64) (int64, time.Time, error) {
	if quantity <= 0 {
		return 0, time.Time{}, ErrInvalidQuantity
	}
	now := u.now()
	if !u.calendar.IsOpen(now) {
		return 0, time.Time{}, ErrMarketClosed
	}
	lp, ok := u.prices.Get(symbol)
	if !ok || lp.Price <= 0 {
		return 0, time.Time{}, ErrPriceUnavailable
	}
	if u.cfg.PriceStaleness > 0 && now.UnixMilli()-lp.EventTimeMillis > u.cfg.PriceStaleness.Milliseconds() {
		return 0, time.Time{}, fmt.Errorf("%w: last tick at %d is stale", ErrPriceUnavailable, lp.EventTimeMillis)
	}
	return lp.Price, now, nil
}

// commit は会員ロックの下で fn を1トランザクションで実行します。
// ErrConflict は CommitAttempts 回まで再試行し、業務エラー以外は ErrOrderFailed で包みます。
func (u *OrderUsecase) commit(ctx context.Context, memberID uint, fn func(tx LedgerTx) error) error {
	unlock, err := u.locks.Lock(ctx, memberID)
	if err != nil {
		return fmt.Errorf("%w: acquire member lock: %w", ErrOrderFailed, err)
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		err = u.ledger.WithinTx(ctx, fn)
		if err == nil || isBusinessError(err) {
			return err
		}
		if errors.Is(err, ErrConflict) && attempt < u.cfg.CommitAttempts {
			slog.Warn("order commit conflict, retrying", "memberID", memberID, "attempt", attempt)
			continue
		}
		slog.Error("order commit failed", "memberID", memberID, "attempt", attempt, "error", err)
		return fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity,
		ErrInsufficientFunds,
		ErrInsufficientQuantity,
		ErrNoSuchPosition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// mulInt64 は a*b を計算し、オーバーフローした場合 false を返します。a, b は正であること。
func mulInt64(a, b int64) (int64, bool) {
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}
