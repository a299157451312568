// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stock_simulator/internal/feature/candles/domain/entity"
	"stock_simulator/internal/feature/candles/transport/http/dto"
	"stock_simulator/internal/platform/http/api"
)

// CandlesUsecase はローソク足データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol string, limit int, includeOpen bool) ([]entity.Candle, error)
}

// Flusher は集計中のローソク足を強制的に確定させます。
type Flusher interface {
	FlushAll(ctx context.Context) (int, error)
}

// SessionClock は現在が取引時間中かを判定します。
type SessionClock interface {
	IsOpen(t time.Time) bool
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc      CandlesUsecase
	flusher Flusher
	session SessionClock
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
// flusher が nil の場合、Flush は 501 を返します。
// session が nil の場合、Flush は取引時間に関係なく実行されます。
func NewCandlesHandler(uc CandlesUsecase, flusher Flusher, session SessionClock) *CandlesHandler {
	return &CandlesHandler{uc: uc, flusher: flusher, session: session}
}

// GetCandlesHandler は銘柄コードを受け取り、1分足を新しい順にJSONで返します。
//
// エンドポイント例:
// GET /candles/:code?limit=200&includeOpen=true
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	code := c.Param("code")
	// 不正な値は 0 となり、usecase でデフォルト値に置き換えられる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(200)))
	includeOpen, _ := strconv.ParseBool(c.DefaultQuery("includeOpen", "false"))

	candles, err := h.uc.GetCandles(c.Request.Context(), code, limit, includeOpen)
	if err != nil {
		slog.Error("failed to get candles", "symbol", code, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Time:              time.UnixMilli(x.BucketStartMillis).UTC().Format(time.RFC3339),
			BucketStartMillis: x.BucketStartMillis,
			Open:              x.Open,
			High:              x.High,
			Low:               x.Low,
			Close:             x.Close,
			Volume:            x.Volume,
			TickCount:         x.TickCount,
		})
	}

	c.JSON(http.StatusOK, out)
}

// Flush は全銘柄の集計中ローソク足を確定させて書き込みます。
//
// 確定したバケットには以後ティックが入らないため、取引時間中に実行すると
// そのバケットの残り時間に届いたティックは遅延ティックとして破棄されます。
// そのため取引時間中は 409 を返し、force=true の場合のみ実行します。
//
// エンドポイント例:
// POST /admin/candles/flush
// POST /admin/candles/flush?force=true
func (h *CandlesHandler) Flush(c *gin.Context) {
	if h.flusher == nil {
		c.JSON(http.StatusNotImplemented, api.ErrorResponse{Error: "flush is not available"})
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	if h.session != nil && h.session.IsOpen(time.Now()) {
		if !force {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "market is open: flushing now drops the rest of the current minute, use force=true to override"})
			return
		}
		slog.Warn("forcing candle flush while market is open")
	}
	n, err := h.flusher.FlushAll(c.Request.Context())
	if err != nil {
		// 書き込み失敗分は保留キューに残り再試行される
		c.JSON(http.StatusAccepted, dto.FlushResponse{Flushed: n, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FlushResponse{Flushed: n})
}
