package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"stock_simulator/internal/feature/market/usecase"
)

// KafkaConfig は Kafka ティックソースの設定です。
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// LoadKafkaConfigFromEnv は環境変数から Kafka の設定を読み込みます。
func LoadKafkaConfigFromEnv() KafkaConfig {
	cfg := KafkaConfig{
		Topic:   os.Getenv("KAFKA_TOPIC"),
		GroupID: os.Getenv("KAFKA_GROUP_ID"),
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	if cfg.Topic == "" {
		cfg.Topic = "market.ticks"
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "stock-simulator"
	}
	return cfg
}

// messageReader は kafka-go の Reader のうち利用するメソッドだけを抜き出したものです。
type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// KafkaSource はコンシューマーグループでティックトピックを購読します。
// メッセージキーは銘柄コードとして扱われ、同一銘柄は同一パーティションに乗ります。
type KafkaSource struct {
	reader messageReader

	// after は再試行までの待機に使います。nil なら time.After です。
	after func(time.Duration) <-chan time.Time
}

var _ usecase.TickSource = (*KafkaSource)(nil)

// NewKafkaSource は設定から KafkaSource を生成します。
func NewKafkaSource(cfg KafkaConfig) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaSource{reader: r}, nil
}

// Run は ctx がキャンセルされるまでメッセージを読み続けます。
// デコードできないメッセージはログを出して読み飛ばします。
// 読み込みエラーでは終了せず、指数バックオフで待ってから読み直します。
func (s *KafkaSource) Run(ctx context.Context, handle usecase.TickHandler) error {
	defer func() {
		if err := s.reader.Close(); err != nil {
			slog.Warn("failed to close kafka reader", "error", err)
		}
	}()
	after := s.after
	if after == nil {
		after = time.After
	}
	backoff := minBackoff
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("kafka read failed, retrying", "backoff", backoff, "error", fmt.Errorf("kafka: read message: %w", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-after(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff
		s.HandleMessage(ctx, msg, handle)
	}
}

// HandleMessage は Kafka メッセージ1件をデコードして handle に渡します。
func (s *KafkaSource) HandleMessage(ctx context.Context, msg kafkago.Message, handle usecase.TickHandler) {
	ticks, err := DecodeTicks(msg.Value, string(msg.Key))
	if err != nil {
		slog.Warn("skipping malformed kafka tick", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
	for _, t := range ticks {
		handle(ctx, t)
	}
}
