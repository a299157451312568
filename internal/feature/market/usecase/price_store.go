// Package usecase は最新価格ストアとティック取り込みのビジネスロジックを実装します。
package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stock_simulator/internal/shared/marketdata"
)

var hundred = decimal.NewFromInt(100)

// PriceStore は銘柄 -> 最新価格スナップショットの並行マップです。
// 同一銘柄への更新は後勝ちで、読み手は常に書き終わったスナップショットだけを観測します。
type PriceStore struct {
	snapshots sync.Map // string -> *marketdata.LatestPrice
	loc       *time.Location
}

// NewPriceStore は取引日の判定に loc を使う PriceStore を生成します。loc が nil の場合は UTC です。
func NewPriceStore(loc *time.Location) *PriceStore {
	if loc == nil {
		loc = time.UTC
	}
	return &PriceStore{loc: loc}
}

// Update はティックの内容で銘柄のスナップショットを無条件に上書きします。
// 到着順の並べ替えは行いません。
func (s *PriceStore) Update(t marketdata.PriceTick) {
	day := time.UnixMilli(t.EventTimeMillis).In(s.loc).Format(time.DateOnly)
	for {
		cur, loaded := s.snapshots.Load(t.Symbol)
		if !loaded {
			next := s.next(nil, t, day)
			if _, raced := s.snapshots.LoadOrStore(t.Symbol, next); !raced {
				return
			}
			continue
		}
		prev := cur.(*marketdata.LatestPrice)
		if s.snapshots.CompareAndSwap(t.Symbol, prev, s.next(prev, t, day)) {
			return
		}
	}
}

func (s *PriceStore) next(prev *marketdata.LatestPrice, t marketdata.PriceTick, day string) *marketdata.LatestPrice {
	ref := t.Price
	volume := t.Volume
	if prev != nil {
		if prev.TradingDay == day {
			ref = prev.ReferencePrice
			volume += prev.CumulativeVolume
		} else {
			// 日付が変わったら前日の最終価格を基準にする
			ref = prev.Price
		}
	}
	return &marketdata.LatestPrice{
		Symbol:           t.Symbol,
		Price:            t.Price,
		DayChangePercent: changePercent(t.Price, ref),
		EventTimeMillis:  t.EventTimeMillis,
		CumulativeVolume: volume,
		ReferencePrice:   ref,
		TradingDay:       day,
	}
}

func changePercent(price, ref int64) decimal.Decimal {
	if ref == 0 {
		return decimal.Zero
	}
	diff := decimal.NewFromInt(price - ref).Mul(hundred)
	return diff.DivRound(decimal.NewFromInt(ref), 2)
}

// Get は銘柄の最新スナップショットを返します。まだ一度もティックが届いていない場合は false です。
func (s *PriceStore) Get(symbol string) (marketdata.LatestPrice, bool) {
	v, ok := s.snapshots.Load(symbol)
	if !ok {
		return marketdata.LatestPrice{}, false
	}
	return *v.(*marketdata.LatestPrice), true
}

// Snapshot は全銘柄のスナップショットを銘柄コード順で返します。
func (s *PriceStore) Snapshot() []marketdata.LatestPrice {
	out := make([]marketdata.LatestPrice, 0)
	s.snapshots.Range(func(_, v any) bool {
		out = append(out, *v.(*marketdata.LatestPrice))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Restore は保存済みのスナップショットを復元します。既にティックを受信済みの銘柄は上書きしません。
func (s *PriceStore) Restore(p marketdata.LatestPrice) bool {
	if p.Symbol == "" {
		return false
	}
	cp := p
	_, loaded := s.snapshots.LoadOrStore(p.Symbol, &cp)
	return !loaded
}

// Len は保持している銘柄数を返します。
func (s *PriceStore) Len() int {
	n := 0
	s.snapshots.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
