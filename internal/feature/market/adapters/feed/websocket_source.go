package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"stock_simulator/internal/feature/market/usecase"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadLimit        = 1 << 20
	minBackoff              = 500 * time.Millisecond
	maxBackoff              = 30 * time.Second
)

// SymbolLister は購読対象の銘柄コードを返します。
type SymbolLister interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// WebSocketConfig は WebSocket ティックソースの設定です。
type WebSocketConfig struct {
	URL string
	// Reconnect が false の場合、切断時に Run はエラーを返して終了します。
	Reconnect bool
}

// LoadWebSocketConfigFromEnv は環境変数から WebSocket の設定を読み込みます。
func LoadWebSocketConfigFromEnv() WebSocketConfig {
	return WebSocketConfig{
		URL:       os.Getenv("TICK_WS_URL"),
		Reconnect: os.Getenv("TICK_WS_RECONNECT") != "false",
	}
}

// subscribeMessage は接続直後に送る購読要求です。
type subscribeMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

// WebSocketSource は WebSocket フィードからティックを受信します。
type WebSocketSource struct {
	cfg     WebSocketConfig
	symbols SymbolLister
	dialer  *websocket.Dialer
}

var _ usecase.TickSource = (*WebSocketSource)(nil)

// NewWebSocketSource は WebSocketSource を生成します。symbols が nil の場合は購読要求を送りません。
func NewWebSocketSource(cfg WebSocketConfig, symbols SymbolLister) (*WebSocketSource, error) {
	if cfg.URL == "" {
		return nil, errors.New("websocket: url is required")
	}
	return &WebSocketSource{
		cfg:     cfg,
		symbols: symbols,
		dialer:  &websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout},
	}, nil
}

// Run は接続と受信を繰り返します。切断時は指数バックオフで再接続します。
func (s *WebSocketSource) Run(ctx context.Context, handle usecase.TickHandler) error {
	backoff := minBackoff
	for {
		started := time.Now()
		err := s.session(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.cfg.Reconnect {
			return err
		}
		if time.Since(started) > maxBackoff {
			backoff = minBackoff
		}
		slog.Warn("tick feed disconnected, reconnecting", "url", s.cfg.URL, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// session は1回分の接続を処理します。
func (s *WebSocketSource) session(ctx context.Context, handle usecase.TickHandler) error {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("websocket: dial: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(defaultReadLimit)

	if err := s.subscribe(ctx, conn); err != nil {
		return err
	}
	slog.Info("tick feed connected", "url", s.cfg.URL)

	// ReadMessage を ctx のキャンセルで解除する
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("websocket: read: %w", err)
		}
		ticks, err := DecodeTicks(data, "")
		if err != nil {
			slog.Warn("skipping malformed websocket tick", "error", err)
		}
		for _, t := range ticks {
			handle(ctx, t)
		}
	}
}

func (s *WebSocketSource) subscribe(ctx context.Context, conn *websocket.Conn) error {
	if s.symbols == nil {
		return nil
	}
	codes, err := s.symbols.ListActiveCodes(ctx)
	if err != nil {
		return fmt.Errorf("websocket: list symbols: %w", err)
	}
	if len(codes) == 0 {
		return nil
	}
	b, err := json.Marshal(subscribeMessage{Action: "subscribe", Symbols: codes})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("websocket: subscribe: %w", err)
	}
	return nil
}
