package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_simulator/internal/feature/symbollist/transport/http/dto"
	"stock_simulator/internal/feature/symbollist/usecase"
	"stock_simulator/internal/platform/http/api"
)

// SymbolUsecase は銘柄情報に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SymbolUsecase interface {
	ListActiveSymbols(ctx context.Context) ([]usecase.SymbolQuote, error)
}

// SymbolHandler は銘柄情報に関するHTTPリクエストを処理します。
type SymbolHandler struct {
	uc SymbolUsecase
}

// NewSymbolHandler は新しい SymbolHandler を作成します。
func NewSymbolHandler(uc SymbolUsecase) *SymbolHandler {
	return &SymbolHandler{uc: uc}
}

// List は有効な銘柄の一覧を最新価格つきで返すAPIです。
// Usecaseでエラーが発生した場合は500 Internal Server Errorを返します。
func (h *SymbolHandler) List(c *gin.Context) {
	symbols, err := h.uc.ListActiveSymbols(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: err.Error()})
		return
	}
	out := make([]dto.SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		item := dto.SymbolItem{Code: s.Code, Name: s.Name}
		if s.HasPrice {
			price := s.Price.Price
			pct := s.Price.DayChangePercent.InexactFloat64()
			item.Price, item.DayChangePercent = &price, &pct
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, out)
}
