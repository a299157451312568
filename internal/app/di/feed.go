package di

import (
	"fmt"

	"stock_simulator/internal/feature/market/adapters/feed"
	marketusecase "stock_simulator/internal/feature/market/usecase"
)

// NewTickSource は TICK_SOURCE に応じたティックソースを生成します。
// "none" の場合は nil を返し、取り込みは行いません。
func NewTickSource(kind string, symbols feed.SymbolLister) (marketusecase.TickSource, error) {
	switch kind {
	case TickSourceNone, "":
		return nil, nil
	case TickSourceKafka:
		return feed.NewKafkaSource(feed.LoadKafkaConfigFromEnv())
	case TickSourceWebSocket:
		return feed.NewWebSocketSource(feed.LoadWebSocketConfigFromEnv(), symbols)
	default:
		return nil, fmt.Errorf("unknown TICK_SOURCE %q", kind)
	}
}
