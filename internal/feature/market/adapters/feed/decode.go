// Package feed はティックストリームの入力アダプター (Kafka, WebSocket) を提供します。
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"stock_simulator/internal/shared/marketdata"
)

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// ErrMalformedTick はJSONとして読めない、または銘柄が特定できないメッセージを表します。
var ErrMalformedTick = errors.New("malformed tick")

// wireTick は上流から届くティックの形式です。数値は数値でも文字列でも受け付けます。
type wireTick struct {
	Symbol          string      `json:"symbol"`
	Price           lenientUint `json:"price"`
	Volume          lenientUint `json:"volume"`
	EventTimeMillis lenientInt  `json:"eventTimeMillis"`
}

// lenientInt は解析できない値を 0 として扱う整数です。
type lenientInt int64

func (n *lenientInt) UnmarshalJSON(b []byte) error {
	*n = lenientInt(parseLenient(b))
	return nil
}

// lenientUint は負数と解析できない値を 0 として扱う整数です。
type lenientUint int64

func (n *lenientUint) UnmarshalJSON(b []byte) error {
	v := parseLenient(b)
	if v < 0 {
		v = 0
	}
	*n = lenientUint(v)
	return nil
}

func parseLenient(b []byte) int64 {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	// int64 に収まらない値は IntPart で桁あふれするため 0 とする
	d = d.Truncate(0)
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0
	}
	return d.IntPart()
}

func (w wireTick) toTick(fallbackSymbol string) (marketdata.PriceTick, error) {
	sym := strings.TrimSpace(w.Symbol)
	if sym == "" {
		sym = fallbackSymbol
	}
	if sym == "" {
		return marketdata.PriceTick{}, fmt.Errorf("%w: missing symbol", ErrMalformedTick)
	}
	return marketdata.PriceTick{
		Symbol:          sym,
		Price:           int64(w.Price),
		Volume:          uint64(w.Volume),
		EventTimeMillis: int64(w.EventTimeMillis),
	}, nil
}

// DecodeTicks は単一オブジェクトまたは配列のティックメッセージをデコードします。
// 銘柄が空の要素には fallbackSymbol（Kafka のメッセージキーなど）を使います。
// 配列中の不正な要素は読み飛ばし、最初のエラーを返します。
func DecodeTicks(b []byte, fallbackSymbol string) ([]marketdata.PriceTick, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrMalformedTick)
	}

	if trimmed[0] == '[' {
		var ws []wireTick
		if err := json.Unmarshal(trimmed, &ws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTick, err)
		}
		out := make([]marketdata.PriceTick, 0, len(ws))
		var firstErr error
		for _, w := range ws {
			t, err := w.toTick(fallbackSymbol)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			out = append(out, t)
		}
		return out, firstErr
	}

	var w wireTick
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTick, err)
	}
	t, err := w.toTick(fallbackSymbol)
	if err != nil {
		return nil, err
	}
	return []marketdata.PriceTick{t}, nil
}
