// Package handler はtradingフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_simulator/internal/feature/trading/transport/http/dto"
	"stock_simulator/internal/feature/trading/usecase"
	"stock_simulator/internal/platform/http/api"
	jwtmw "stock_simulator/internal/platform/jwt"
)

// OrderUsecase は成行注文のユースケースインターフェースです。
type OrderUsecase interface {
	ExecuteBuy(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error)
	ExecuteSell(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error)
}

// OrderHandler は注文のHTTPリクエストを処理します。
type OrderHandler struct {
	uc OrderUsecase
}

// NewOrderHandler は新しい OrderHandler を作成します。
func NewOrderHandler(uc OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Buy は最新価格での買い注文を執行します。
//
// エンドポイント例:
// POST /orders/buy {"symbol":"005930","quantity":5}
func (h *OrderHandler) Buy(c *gin.Context) {
	h.execute(c, h.uc.ExecuteBuy)
}

// Sell は最新価格での売り注文を執行します。
//
// エンドポイント例:
// POST /orders/sell {"symbol":"005930","quantity":3}
func (h *OrderHandler) Sell(c *gin.Context) {
	h.execute(c, h.uc.ExecuteSell)
}

type executeFunc func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error)

func (h *OrderHandler) execute(c *gin.Context, exec executeFunc) {
	memberID, ok := jwtmw.MemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := exec(c.Request.Context(), memberID, req.Symbol, req.Quantity)
	if err != nil {
		status := OrderErrorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("order failed", "memberID", memberID, "symbol", req.Symbol, "error", err)
		}
		c.JSON(status, dto.OrderResponse{Executed: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.OrderResponse{
		Executed:       res.Executed,
		ExecutionPrice: res.ExecutionPrice,
		Message:        res.Message,
		TradeID:        res.Trade.ID,
	})
}

// OrderErrorStatus は注文エラーをHTTPステータスに対応付けます。
func OrderErrorStatus(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrMarketClosed):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrNoSuchPosition):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInsufficientFunds), errors.Is(err, usecase.ErrInsufficientQuantity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrPriceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
