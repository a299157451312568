// Package usecase はローソク足の集計と参照のビジネスロジックを実装します。
package usecase

import (
	"context"

	"stock_simulator/internal/feature/candles/domain/entity"
)

const (
	// DefaultLimit はデフォルトのローソク足返却件数です。
	DefaultLimit = 200
	// MaxLimit はローソク足の最大返却件数です。
	MaxLimit = 5000
)

// CandleRepository は確定済みローソク足の読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// Find は新しい順に最大 limit 件のローソク足を返します。
	Find(ctx context.Context, symbol string, limit int) ([]entity.Candle, error)
}

// OpenCandleReader は集計中のローソク足を参照します。
type OpenCandleReader interface {
	Open(symbol string) (entity.Candle, bool)
}

// candlesUsecase はローソク足データ操作のユースケースを定義します。
type candlesUsecase struct {
	candle CandleRepository
	open   OpenCandleReader
}

// NewCandlesUsecase はcandlesUsecaseの新しいインスタンスを生成します。
// open が nil の場合、集計中のローソク足は結果に含めません。
func NewCandlesUsecase(candle CandleRepository, open OpenCandleReader) *candlesUsecase {
	return &candlesUsecase{candle: candle, open: open}
}

// GetCandles は指定された銘柄のローソク足を新しい順に取得します。
// includeOpen が true の場合、集計中のローソク足を先頭に加えます。
func (cu *candlesUsecase) GetCandles(ctx context.Context, symbol string, limit int, includeOpen bool) ([]entity.Candle, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	cs, err := cu.candle.Find(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}

	if !includeOpen || cu.open == nil {
		return cs, nil
	}
	oc, ok := cu.open.Open(symbol)
	if !ok {
		return cs, nil
	}
	// 書き込み済みの同一バケットは集計中のもので置き換える
	if len(cs) > 0 && cs[0].BucketStartMillis == oc.BucketStartMillis {
		cs = cs[1:]
	}
	out := append([]entity.Candle{oc}, cs...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
