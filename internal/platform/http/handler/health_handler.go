// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	// すべてのGET/HEAD/OPTIONSリクエストに対して200または204を返す
	switch c.Request.Method {
	case "HEAD":
		c.Status(200)
	case "OPTIONS":
		c.Status(204)
	default:
		c.JSON(200, gin.H{"status": "ok"})
	}
}

// Checker は依存先の疎通確認です。DB や Redis の Ping を渡します。
type Checker func(ctx context.Context) error

// Readiness は /readyz 用のハンドラーです。
type Readiness struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewReadiness は名前付きの依存チェックから Readiness を生成します。nil のチェックは無視されます。
func NewReadiness(checks map[string]Checker) *Readiness {
	r := &Readiness{checks: make(map[string]Checker, len(checks)), timeout: 2 * time.Second}
	for name, c := range checks {
		if c != nil {
			r.checks[name] = c
		}
	}
	return r
}

// Ready はすべての依存チェックを実行し、失敗があれば 503 を返します。
func (r *Readiness) Ready(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	ctx, cancel := context.WithTimeout(c.Request.Context(), r.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(r.checks))
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body := gin.H{"status": "ok", "checks": results}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	c.JSON(status, body)
}
