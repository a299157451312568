// Package calendar decides whether the exchange session is open.
package calendar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // 最小イメージでも Asia/Seoul を読めるように
)

// Config は取引時間の設定です。
type Config struct {
	// Location は取引所のタイムゾーン名です (例: Asia/Seoul)。
	Location string
	// Open と Close は HH:MM 形式の立会時間です。Close の時刻ちょうどは時間外です。
	Open  string
	Close string
	// Holidays は YYYY-MM-DD 形式の休場日です。
	Holidays []string
	// AlwaysOpen が true の場合、曜日・休場日・時刻に関わらず常に取引可能とします。
	AlwaysOpen bool
}

// DefaultConfig は韓国取引所の通常立会時間を返します。
func DefaultConfig() Config {
	return Config{Location: "Asia/Seoul", Open: "09:00", Close: "15:30"}
}

// LoadConfigFromEnv は環境変数から設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("MARKET_TZ"); v != "" {
		cfg.Location = v
	}
	if v := os.Getenv("MARKET_OPEN"); v != "" {
		cfg.Open = v
	}
	if v := os.Getenv("MARKET_CLOSE"); v != "" {
		cfg.Close = v
	}
	if v := os.Getenv("MARKET_HOLIDAYS"); v != "" {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Holidays = append(cfg.Holidays, d)
			}
		}
	}
	if b, err := strconv.ParseBool(os.Getenv("MARKET_ALWAYS_OPEN")); err == nil {
		cfg.AlwaysOpen = b
	}
	return cfg
}

// Calendar is an immutable exchange calendar and is safe for concurrent use.
type Calendar struct {
	loc        *time.Location
	open       time.Duration // offset from local midnight
	close      time.Duration
	holidays   map[string]struct{}
	alwaysOpen bool
}

// New validates cfg and builds a Calendar.
func New(cfg Config) (*Calendar, error) {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("load market location %q: %w", cfg.Location, err)
	}
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	closeAt, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}
	if closeAt <= open {
		return nil, fmt.Errorf("market close %s must be after open %s", cfg.Close, cfg.Open)
	}
	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, d := range cfg.Holidays {
		if _, err := time.ParseInLocation(time.DateOnly, d, loc); err != nil {
			return nil, fmt.Errorf("market holiday %q: %w", d, err)
		}
		holidays[d] = struct{}{}
	}
	return &Calendar{loc: loc, open: open, close: closeAt, holidays: holidays, alwaysOpen: cfg.AlwaysOpen}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Location returns the exchange time zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsTradingDay reports whether the local date of t is a weekday and not a holiday.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[local.Format(time.DateOnly)]
	return !holiday
}

// IsOpen reports whether the session is active at t.
func (c *Calendar) IsOpen(t time.Time) bool {
	if c.alwaysOpen {
		return true
	}
	if !c.IsTradingDay(t) {
		return false
	}
	local := t.In(c.loc)
	sinceMidnight := local.Sub(midnight(local))
	return sinceMidnight >= c.open && sinceMidnight < c.close
}

// NextClose returns the first session close strictly after the given time.
// With AlwaysOpen every calendar day closes at the configured time.
func (c *Calendar) NextClose(after time.Time) time.Time {
	day := midnight(after.In(c.loc))
	// 連休を考慮しても1年以内に必ず営業日がある
	for i := 0; i < 370; i++ {
		d := day.AddDate(0, 0, i)
		closeAt := atOffset(d, c.close)
		if !closeAt.After(after) {
			continue
		}
		if c.alwaysOpen || c.IsTradingDay(d) {
			return closeAt
		}
	}
	return atOffset(day.AddDate(0, 0, 1), c.close)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// atOffset は DST を考慮して日付 d の壁時計 offset の時刻を返します。
func atOffset(d time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location())
}
