package usecase

import (
	"context"
	"log/slog"
	"time"
)

// CloseClock は次の大引け時刻を返します。
type CloseClock interface {
	NextClose(after time.Time) time.Time
}

// Flusher は集計中のローソク足をすべて確定させます。
type Flusher interface {
	FlushAll(ctx context.Context) (int, error)
}

// FlushScheduler は大引けごとに FlushAll を呼び、最後の1分足が取り残されないようにします。
type FlushScheduler struct {
	clock   CloseClock
	flusher Flusher
	now     func() time.Time
	after   func(d time.Duration) <-chan time.Time
}

// NewFlushScheduler は FlushScheduler を生成します。
func NewFlushScheduler(clock CloseClock, flusher Flusher) *FlushScheduler {
	return &FlushScheduler{clock: clock, flusher: flusher, now: time.Now, after: time.After}
}

// Run は ctx がキャンセルされるまで大引けを待って FlushAll を繰り返します。
func (s *FlushScheduler) Run(ctx context.Context) error {
	for {
		now := s.now()
		next := s.clock.NextClose(now)
		slog.Info("next candle flush scheduled", "at", next)
		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(now)):
		}
		n, err := s.flusher.FlushAll(ctx)
		if err != nil {
			slog.Error("market close flush failed", "flushed", n, "error", err)
			continue
		}
		slog.Info("market close flush completed", "flushed", n)
	}
}
