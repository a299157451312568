package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"stock_simulator/internal/feature/trading/domain/entity"
	"stock_simulator/internal/shared/marketdata"
)

type posKey struct {
	memberID uint
	symbol   string
}

// memLedger はテスト用のインメモリ Ledger です。
// コミット時に口座のバージョンを照合し、競合すれば ErrConflict を返します。
type memLedger struct {
	mu        sync.Mutex
	accounts  map[uint]entity.CashAccount
	positions map[posKey]entity.Position
	trades    []entity.TradeRecord

	// conflicts が正の間、コミットは ErrConflict で失敗します。
	conflicts int
	// appendErr が設定されていれば AppendTrade が失敗します。
	appendErr error

	active  atomic.Int32
	overlap atomic.Bool
	txCount atomic.Int32
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts:  map[uint]entity.CashAccount{},
		positions: map[posKey]entity.Position{},
	}
}

func (l *memLedger) seedAccount(memberID uint, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[memberID] = entity.CashAccount{MemberID: memberID, Balance: balance, Version: 1}
}

func (l *memLedger) account(memberID uint) entity.CashAccount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[memberID]
}

func (l *memLedger) position(memberID uint, symbol string) (entity.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[posKey{memberID, symbol}]
	return p, ok
}

func (l *memLedger) tradeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

func (l *memLedger) WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	if l.active.Add(1) > 1 {
		l.overlap.Store(true)
	}
	defer l.active.Add(-1)
	l.txCount.Add(1)

	tx := &memTx{l: l, accounts: map[uint]entity.CashAccount{}, positions: map[posKey]*entity.Position{}}
	if err := fn(tx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conflicts > 0 {
		l.conflicts--
		return ErrConflict
	}
	for id, acc := range tx.accounts {
		if cur, ok := l.accounts[id]; ok && cur.Version != acc.Version-1 {
			return ErrConflict
		}
	}
	for id, acc := range tx.accounts {
		l.accounts[id] = acc
	}
	for k, p := range tx.positions {
		if p == nil || p.Quantity == 0 {
			delete(l.positions, k)
			continue
		}
		l.positions[k] = *p
	}
	l.trades = append(l.trades, tx.trades...)
	return nil
}

type memTx struct {
	l         *memLedger
	accounts  map[uint]entity.CashAccount
	positions map[posKey]*entity.Position
	trades    []entity.TradeRecord
}

func (t *memTx) Account(ctx context.Context, memberID uint) (entity.CashAccount, error) {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	acc, ok := t.l.accounts[memberID]
	if !ok {
		return entity.CashAccount{}, ErrAccountNotFound
	}
	return acc, nil
}

func (t *memTx) Position(ctx context.Context, memberID uint, symbol string) (entity.Position, bool, error) {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	p, ok := t.l.positions[posKey{memberID, symbol}]
	return p, ok, nil
}

func (t *memTx) SaveAccount(ctx context.Context, acc entity.CashAccount) error {
	acc.Version++
	t.accounts[acc.MemberID] = acc
	return nil
}

func (t *memTx) SavePosition(ctx context.Context, p entity.Position) error {
	t.positions[posKey{p.MemberID, p.Symbol}] = &p
	return nil
}

func (t *memTx) AppendTrade(ctx context.Context, tr entity.TradeRecord) error {
	if t.l.appendErr != nil {
		return t.l.appendErr
	}
	t.trades = append(t.trades, tr)
	return nil
}

// mockPriceReader はPriceReaderのモック実装です。
type mockPriceReader struct {
	mu     sync.Mutex
	prices map[string]marketdata.LatestPrice
}

func newMockPriceReader() *mockPriceReader {
	return &mockPriceReader{prices: map[string]marketdata.LatestPrice{}}
}

func (m *mockPriceReader) set(symbol string, price, eventTimeMillis int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = marketdata.LatestPrice{Symbol: symbol, Price: price, EventTimeMillis: eventTimeMillis}
}

func (m *mockPriceReader) Get(symbol string) (marketdata.LatestPrice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[symbol]
	return p, ok
}

// mockCalendar はMarketCalendarのモック実装です。
type mockCalendar struct {
	open bool
}

func (m *mockCalendar) IsOpen(time.Time) bool { return m.open }
