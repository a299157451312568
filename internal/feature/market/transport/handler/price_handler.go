// Package handler は market フィーチャーの HTTP ハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_simulator/internal/feature/market/transport/http/dto"
	"stock_simulator/internal/platform/http/api"
	"stock_simulator/internal/shared/marketdata"
)

// PriceReader は最新価格の読み取りインターフェースです。
type PriceReader interface {
	Get(symbol string) (marketdata.LatestPrice, bool)
	Snapshot() []marketdata.LatestPrice
}

// PriceHandler は最新価格の HTTP リクエストを処理します。
type PriceHandler struct {
	prices PriceReader
}

// NewPriceHandler は PriceHandler を生成します。
func NewPriceHandler(prices PriceReader) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// List は全銘柄の最新価格を返します。
//
// GET /prices
func (h *PriceHandler) List(c *gin.Context) {
	snap := h.prices.Snapshot()
	out := make([]dto.PriceResponse, 0, len(snap))
	for _, p := range snap {
		out = append(out, dto.NewPriceResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// Get は指定銘柄の最新価格を返します。未受信の銘柄は 404 です。
//
// GET /prices/:symbol
func (h *PriceHandler) Get(c *gin.Context) {
	sym := c.Param("symbol")
	p, ok := h.prices.Get(sym)
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "no price for symbol " + sym})
		return
	}
	c.JSON(http.StatusOK, dto.NewPriceResponse(p))
}
