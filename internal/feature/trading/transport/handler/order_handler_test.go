package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stock_simulator/internal/feature/trading/domain/entity"
	"stock_simulator/internal/feature/trading/transport/handler"
	"stock_simulator/internal/feature/trading/usecase"
	jwtmw "stock_simulator/internal/platform/jwt"
	"stock_simulator/internal/platform/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// mockOrderUsecase はOrderUsecaseインターフェースのモック実装です。
type mockOrderUsecase struct {
	ExecuteBuyFunc  func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error)
	ExecuteSellFunc func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error)
}

func (m *mockOrderUsecase) ExecuteBuy(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error) {
	return m.ExecuteBuyFunc(ctx, memberID, symbol, quantity)
}

func (m *mockOrderUsecase) ExecuteSell(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error) {
	return m.ExecuteSellFunc(ctx, memberID, symbol, quantity)
}

// asMember は認証済みの会員IDをコンテキストに設定するテスト用ミドルウェアです。
func asMember(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(jwtmw.ContextUserID, id)
		c.Next()
	}
}

func TestOrderHandler_Buy(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockBuy        func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: executed at latest price",
			body: `{"symbol":"005930","quantity":5}`,
			mockBuy: func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error) {
				assert.Equal(t, uint(1), memberID)
				assert.Equal(t, "005930", symbol)
				assert.Equal(t, int64(5), quantity)
				return usecase.ExecutionResult{
					Executed: true, ExecutionPrice: 100_000, Message: "bought 5 005930 at 100000",
					Trade: entity.TradeRecord{ID: "trade-1"},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"executed":true,"executionPrice":100000,"message":"bought 5 005930 at 100000","tradeId":"trade-1"}`,
		},
		{
			name: "error: insufficient funds",
			body: `{"symbol":"005930","quantity":5}`,
			mockBuy: func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error) {
				return usecase.ExecutionResult{}, &usecase.InsufficientFundsError{Balance: 400_000, Required: 500_000}
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"executed":false,"executionPrice":0,"message":"insufficient funds: balance 400000, required 500000"}`,
		},
		{
			name:           "error: invalid symbol is rejected by binding",
			body:           `{"symbol":"not a symbol","quantity":5}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error: malformed json",
			body:           `{"symbol":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockOrderUsecase{ExecuteBuyFunc: tt.mockBuy}
			h := handler.NewOrderHandler(uc)

			router := gin.New()
			router.POST("/orders/buy", asMember(1), h.Buy)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/orders/buy", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestOrderHandler_Sell(t *testing.T) {
	uc := &mockOrderUsecase{
		ExecuteSellFunc: func(ctx context.Context, memberID uint, symbol string, quantity int64) (usecase.ExecutionResult, error) {
			return usecase.ExecutionResult{}, &usecase.InsufficientQuantityError{Held: 2, Requested: 3}
		},
	}
	h := handler.NewOrderHandler(uc)

	router := gin.New()
	router.POST("/orders/sell", asMember(1), h.Sell)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/sell", strings.NewReader(`{"symbol":"005930","quantity":3}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"executed":false,"executionPrice":0,"message":"insufficient quantity: held 2, requested 3"}`, w.Body.String())
}

func TestOrderHandler_Unauthenticated(t *testing.T) {
	h := handler.NewOrderHandler(&mockOrderUsecase{})

	router := gin.New()
	router.POST("/orders/buy", h.Buy)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/buy", strings.NewReader(`{"symbol":"005930","quantity":1}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderErrorStatus(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{usecase.ErrInvalidQuantity, http.StatusBadRequest},
		{fmt.Errorf("%w: order value overflows", usecase.ErrInvalidQuantity), http.StatusBadRequest},
		{usecase.ErrMarketClosed, http.StatusForbidden},
		{usecase.ErrNoSuchPosition, http.StatusNotFound},
		{&usecase.InsufficientFundsError{}, http.StatusUnprocessableEntity},
		{&usecase.InsufficientQuantityError{}, http.StatusUnprocessableEntity},
		{usecase.ErrPriceUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: %w", usecase.ErrOrderFailed, usecase.ErrConflict), http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.OrderErrorStatus(tt.err))
		})
	}
}
