package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/cryptogap-go/internal/api/handlers"
	"github.com/irfndi/cryptogap-go/internal/arbitrage"
	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/llm"
	"github.com/irfndi/cryptogap-go/internal/logging"
	"github.com/irfndi/cryptogap-go/internal/middleware"
	"github.com/irfndi/cryptogap-go/internal/models"
)

type fixedFetcher struct {
	name  string
	price string
}

func (f fixedFetcher) Name() string { return f.name }

func (f fixedFetcher) FetchPrices(context.Context, []string, []string) (models.PriceTable, error) {
	return models.PriceTable{
		"BTC": {"USDT": models.PriceOf(decimal.RequireFromString(f.price))},
	}, nil
}

type noCoins struct{}

func (noCoins) GetCoinDetails(context.Context, string, string) ([]models.CoinDetail, error) {
	return []models.CoinDetail{}, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	logger := logging.NewStandardLoggerTo(logging.Options{Level: "info"}, &logs)

	calc := arbitrage.NewCalculator([]exchange.Fetcher{
		fixedFetcher{name: "binance", price: "100"},
		fixedFetcher{name: "kraken", price: "102"},
	}, arbitrage.Settings{Symbols: []string{"BTC"}, Markets: []string{"USDT"}}, nil)

	router := NewRouter("cryptogap-test", []string{"http://localhost:3000"}, logger)
	SetupRoutes(router, Dependencies{
		Calculator: calc,
		Coins:      noCoins{},
		Analyst:    llm.NewAnalyzer(config.LLMConfig{}, nil),
	})
	return router, &logs
}

func TestSetupRoutes(t *testing.T) {
	router, logs := setupRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/api/v1/arbitrage/opportunities", "", http.StatusOK},
		{http.MethodGet, "/api/v1/arbitrage/last", "", http.StatusOK},
		{http.MethodGet, "/api/v1/arbitrage/low-price-gainers", "", http.StatusOK},
		{http.MethodGet, "/api/v1/market/prices", "", http.StatusOK},
		{http.MethodGet, "/api/v1/market/coins/BTC", "", http.StatusOK},
		{http.MethodPost, "/api/v1/trade/simulate", `{"symbol":"BTC","market":"USDT","amount":100,"buy_exchange":"binance","sell_exchange":"kraken"}`, http.StatusOK},
		{http.MethodGet, "/api/v1/analysis/opportunity", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/analysis/low-price/BTC", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/analysis/coin/BTC", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/users/profile", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}

	assert.Contains(t, logs.String(), `"path":"/api/v1/trade/simulate"`)
}

func TestSetupRoutes_ErrorBodyCarriesRequestID(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/opportunity", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-me")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"AI analysis is not configured","request_id":"trace-me"}`, w.Body.String())
}

func TestCalculatorSatisfiesAPI(t *testing.T) {
	var _ Calculator = (*arbitrage.Calculator)(nil)
	var _ handlers.Analyst = (*llm.Analyzer)(nil)
}
