// Package middleware はルーター全体で使う gin ミドルウェアです。
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stock_simulator/internal/platform/http/api"
	jwtmw "stock_simulator/internal/platform/jwt"
	"stock_simulator/internal/shared/ratelimiter"
)

const (
	RequestIDHeaderKey  = "X-Request-ID"
	RequestIDContextKey = "requestID"
)

// RequestID はリクエストIDを引き継ぐか新規に採番し、レスポンスヘッダーとコンテキストに設定します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeaderKey, requestID)
		c.Set(RequestIDContextKey, requestID)
		c.Next()
	}
}

// Logger はアクセスログを slog で出力します。
func Logger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"clientIP", c.ClientIP(),
			"requestID", c.GetString(RequestIDContextKey),
		}
		if id, ok := jwtmw.MemberID(c); ok {
			attrs = append(attrs, "memberID", id)
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}

// RateLimit は会員ごとにリクエストを制限し、超過時は 429 を返します。
// 認証前に置いた場合はクライアントIPをキーにします。
func RateLimit(l ratelimiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if id, ok := jwtmw.MemberID(c); ok {
			key = "member:" + strconv.FormatUint(uint64(id), 10)
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
