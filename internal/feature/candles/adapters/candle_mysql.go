// Package adapters は candles フィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"stock_simulator/internal/feature/candles/domain/entity"
	"stock_simulator/internal/feature/candles/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type candleMySQL struct {
	db *gorm.DB
}

var (
	_ usecase.CandleRepository = (*candleMySQL)(nil)
	_ usecase.CandleSink       = (*candleMySQL)(nil)
)

// NewCandleRepository は gorm 実装のローソク足リポジトリを生成します。
func NewCandleRepository(db *gorm.DB) *candleMySQL {
	return &candleMySQL{db: db}
}

// CandleModel は1分足テーブルの行です。(symbol, bucket_start_millis) が一意キーです。
type CandleModel struct {
	ID                uint   `gorm:"primaryKey"`
	Symbol            string `gorm:"size:32;not null;uniqueIndex:candle_sym_bucket,priority:1"`
	BucketStartMillis int64  `gorm:"not null;uniqueIndex:candle_sym_bucket,priority:2"`

	Open      int64  `gorm:"not null"`
	High      int64  `gorm:"not null"`
	Low       int64  `gorm:"not null"`
	Close     int64  `gorm:"not null"`
	Volume    uint64 `gorm:"not null;default:0"`
	TickCount int64  `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Symbol:            e.Symbol,
		BucketStartMillis: e.BucketStartMillis,
		Open:              e.Open,
		High:              e.High,
		Low:               e.Low,
		Close:             e.Close,
		Volume:            e.Volume,
		TickCount:         e.TickCount,
	}
}

func toEntity(m CandleModel) entity.Candle {
	return entity.Candle{
		Symbol:            m.Symbol,
		BucketStartMillis: m.BucketStartMillis,
		Open:              m.Open,
		High:              m.High,
		Low:               m.Low,
		Close:             m.Close,
		Volume:            m.Volume,
		TickCount:         m.TickCount,
	}
}

// Write は確定したローソク足を保存します。同じバケットが再送された場合は上書きします。
func (r *candleMySQL) Write(ctx context.Context, c entity.Candle) error {
	m := toModel(c)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "bucket_start_millis"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "tick_count"}),
	}).Create(&m).Error
}

// Find は新しい順に最大 limit 件のローソク足を返します。
func (r *candleMySQL) Find(ctx context.Context, symbol string, limit int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("bucket_start_millis DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}
