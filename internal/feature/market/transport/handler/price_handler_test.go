package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stock_simulator/internal/shared/marketdata"
)

type mockPriceReader struct {
	prices map[string]marketdata.LatestPrice
	order  []string
}

func (m *mockPriceReader) Get(symbol string) (marketdata.LatestPrice, bool) {
	p, ok := m.prices[symbol]
	return p, ok
}

func (m *mockPriceReader) Snapshot() []marketdata.LatestPrice {
	out := make([]marketdata.LatestPrice, 0, len(m.order))
	for _, s := range m.order {
		out = append(out, m.prices[s])
	}
	return out
}

func newReader() *mockPriceReader {
	return &mockPriceReader{
		prices: map[string]marketdata.LatestPrice{
			"005930": {Symbol: "005930", Price: 71000, DayChangePercent: decimal.RequireFromString("1.5"), EventTimeMillis: 1000, CumulativeVolume: 10},
		},
		order: []string{"005930"},
	}
}

func TestPriceHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success: returns latest price",
			path:           "/prices/005930",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"symbol":"005930","price":71000,"dayChangePercent":1.5,"eventTimeMillis":1000,"cumulativeVolume":10}`,
		},
		{
			name:           "error: unknown symbol",
			path:           "/prices/999999",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"no price for symbol 999999"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.GET("/prices/:symbol", NewPriceHandler(newReader()).Get)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestPriceHandler_List(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/prices", NewPriceHandler(newReader()).List)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/prices", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"symbol":"005930","price":71000,"dayChangePercent":1.5,"eventTimeMillis":1000,"cumulativeVolume":10}]`, w.Body.String())
}
