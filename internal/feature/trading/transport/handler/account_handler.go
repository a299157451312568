package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_simulator/internal/feature/trading/domain/entity"
	"stock_simulator/internal/feature/trading/transport/http/dto"
	"stock_simulator/internal/feature/trading/usecase"
	"stock_simulator/internal/platform/http/api"
	jwtmw "stock_simulator/internal/platform/jwt"
)

// PortfolioUsecase は口座と保有資産の照会ユースケースです。
type PortfolioUsecase interface {
	OpenAccount(ctx context.Context, memberID uint) (entity.CashAccount, bool, error)
	GetAccount(ctx context.Context, memberID uint) (entity.CashAccount, error)
	GetPortfolio(ctx context.Context, memberID uint) (usecase.Portfolio, error)
	ListTrades(ctx context.Context, memberID uint, limit int) ([]entity.TradeRecord, error)
}

// AccountHandler は口座・ポートフォリオ・約定履歴のHTTPリクエストを処理します。
type AccountHandler struct {
	uc PortfolioUsecase
}

// NewAccountHandler は新しい AccountHandler を作成します。
func NewAccountHandler(uc PortfolioUsecase) *AccountHandler {
	return &AccountHandler{uc: uc}
}

// Open は口座を開設します。新規作成時は201、既存の場合は200を返します。
func (h *AccountHandler) Open(c *gin.Context) {
	memberID, ok := member(c)
	if !ok {
		return
	}
	acc, created, err := h.uc.OpenAccount(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.AccountResponse{MemberID: acc.MemberID, Balance: acc.Balance})
}

// Me は自分の口座残高を返します。
func (h *AccountHandler) Me(c *gin.Context) {
	memberID, ok := member(c)
	if !ok {
		return
	}
	acc, err := h.uc.GetAccount(c.Request.Context(), memberID)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AccountResponse{MemberID: acc.MemberID, Balance: acc.Balance})
}

// Portfolio は保有ポジションを最新価格で評価して返します。
func (h *AccountHandler) Portfolio(c *gin.Context) {
	memberID, ok := member(c)
	if !ok {
		return
	}
	p, err := h.uc.GetPortfolio(c.Request.Context(), memberID)
	if err != nil {
		writeAccountError(c, err)
		return
	}
	out := dto.PortfolioResponse{
		Cash:          p.Cash,
		MarketValue:   p.MarketValue.String(),
		UnrealizedPnL: p.UnrealizedPnL.String(),
		TotalEquity:   p.TotalEquity.String(),
		Positions:     make([]dto.PositionItem, 0, len(p.Positions)),
	}
	for _, v := range p.Positions {
		out.Positions = append(out.Positions, dto.PositionItem{
			Symbol:         v.Symbol,
			Quantity:       v.Quantity,
			AvgCost:        v.AvgCost.String(),
			LastPrice:      v.LastPrice,
			PriceAvailable: v.PriceAvailable,
			MarketValue:    v.MarketValue.String(),
			UnrealizedPnL:  v.UnrealizedPnL.String(),
		})
	}
	c.JSON(http.StatusOK, out)
}

// Trades は約定履歴を新しい順に返します。
//
// エンドポイント例:
// GET /trades?limit=50
func (h *AccountHandler) Trades(c *gin.Context) {
	memberID, ok := member(c)
	if !ok {
		return
	}
	// 不正な値は 0 となり、usecase でデフォルト値に置き換えられる
	limit, _ := strconv.Atoi(c.Query("limit"))
	trades, err := h.uc.ListTrades(c.Request.Context(), memberID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]dto.TradeItem, 0, len(trades))
	for _, t := range trades {
		out = append(out, dto.TradeItem{
			ID:               t.ID,
			Symbol:           t.Symbol,
			Side:             string(t.Side),
			Quantity:         t.Quantity,
			ExecutionPrice:   t.ExecutionPrice,
			ExecutedAtMillis: t.ExecutedAtMillis,
			RealizedPnL:      t.RealizedPnL.String(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func member(c *gin.Context) (uint, bool) {
	id, ok := jwtmw.MemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
	}
	return id, ok
}

func writeAccountError(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
}
