// Package logging は slog のデフォルトロガーを環境変数から設定します。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config はログ出力の設定です。
type Config struct {
	Level  slog.Level
	Format string // "json" または "text"
}

// LoadConfigFromEnv は LOG_LEVEL (debug|info|warn|error) と LOG_FORMAT (json|text) を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{Level: slog.LevelInfo, Format: "json"}
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn", "warning":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "text" {
		cfg.Format = "text"
	}
	return cfg
}

// New は設定に従ったロガーを生成します。
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Setup は標準エラー出力へのロガーを生成し、slog のデフォルトに設定します。
func Setup(cfg Config) *slog.Logger {
	logger := New(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}
