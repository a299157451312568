package usecase

import (
	"context"
	"log/slog"
	"time"

	"stock_simulator/internal/shared/marketdata"
)

// DefaultMirrorInterval は最新価格を外部ストアへ書き出す間隔のデフォルトです。
const DefaultMirrorInterval = 5 * time.Second

// SnapshotRepository は最新価格スナップショットの永続化先を抽象化します。
type SnapshotRepository interface {
	SaveAll(ctx context.Context, prices []marketdata.LatestPrice) error
	LoadAll(ctx context.Context) ([]marketdata.LatestPrice, error)
}

// SnapshotMirror は PriceStore の内容を定期的に外部ストアへ複製し、起動時に復元します。
type SnapshotMirror struct {
	store    *PriceStore
	repo     SnapshotRepository
	interval time.Duration
}

// NewSnapshotMirror は SnapshotMirror を生成します。
func NewSnapshotMirror(store *PriceStore, repo SnapshotRepository, interval time.Duration) *SnapshotMirror {
	if interval <= 0 {
		interval = DefaultMirrorInterval
	}
	return &SnapshotMirror{store: store, repo: repo, interval: interval}
}

// Restore は外部ストアのスナップショットをまだ価格を持たない銘柄に読み込み、復元件数を返します。
func (m *SnapshotMirror) Restore(ctx context.Context) (int, error) {
	prices, err := m.repo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range prices {
		if m.store.Restore(p) {
			n++
		}
	}
	return n, nil
}

// Publish は現在のスナップショットを一度だけ書き出します。
func (m *SnapshotMirror) Publish(ctx context.Context) error {
	snap := m.store.Snapshot()
	if len(snap) == 0 {
		return nil
	}
	return m.repo.SaveAll(ctx, snap)
}

// Run は ctx がキャンセルされるまで interval ごとに Publish を繰り返します。
func (m *SnapshotMirror) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.Publish(ctx); err != nil {
				slog.Warn("failed to mirror latest prices", "error", err)
			}
		}
	}
}
