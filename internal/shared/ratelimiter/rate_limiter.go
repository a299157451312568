package ratelimiter

import (
	"sync"
	"time"
)

// Limiter はキーごとの呼び出し頻度を判定します。
type Limiter interface {
	Allow(key string) bool
}

type window struct {
	start time.Time
	count int
}

// RateLimiter はキー（会員IDなど）ごとの固定ウィンドウ方式のレート制限です。
type RateLimiter struct {
	limit    int           // ウィンドウあたりの上限
	interval time.Duration // どの単位でリセットするか

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。limit が 0 以下の場合は常に許可します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		windows:  make(map[string]*window),
		now:      time.Now,
	}
}

// Allow はキーの現在のウィンドウに空きがあればカウントして true を返します。
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !ok || now.Sub(w.start) >= rl.interval {
		rl.sweep(now)
		rl.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// sweep は期限切れのウィンドウを捨てます。mu を保持して呼ぶこと。
func (rl *RateLimiter) sweep(now time.Time) {
	if len(rl.windows) < 1024 {
		return
	}
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.interval {
			delete(rl.windows, k)
		}
	}
}
