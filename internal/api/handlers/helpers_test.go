package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/cryptogap-go/internal/arbitrage"
	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/models"
)

type staticFetcher struct {
	name   string
	prices map[string]string
	err    error
}

func (f *staticFetcher) Name() string { return f.name }

func (f *staticFetcher) FetchPrices(ctx context.Context, symbols, markets []string) (models.PriceTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	table := models.PriceTable{}
	for symbol, price := range f.prices {
		table[symbol] = models.MarketPrices{"USDT": models.PriceOf(decimal.RequireFromString(price))}
	}
	return table, nil
}

// newCalculator quotes DOGE with a 10% gap and BTC with a 1% gap. ETH is
// priced the same on both exchanges.
func newCalculator() *arbitrage.Calculator {
	return newCalculatorWith(
		&staticFetcher{name: "binance", prices: map[string]string{"BTC": "50000", "ETH": "2000", "DOGE": "0.10"}},
		&staticFetcher{name: "kraken", prices: map[string]string{"BTC": "50500", "ETH": "2000", "DOGE": "0.11"}},
	)
}

func newCalculatorWith(fetchers ...exchange.Fetcher) *arbitrage.Calculator {
	return arbitrage.NewCalculator(fetchers, arbitrage.Settings{
		Symbols: []string{"BTC", "ETH", "DOGE"},
		Markets: []string{"USDT"},
	}, nil)
}

func failingCalculator() *arbitrage.Calculator {
	return newCalculatorWith(
		&staticFetcher{name: "binance", err: errors.New("down")},
		&staticFetcher{name: "kraken", err: errors.New("down")},
	)
}

func perform(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func extractField(t *testing.T, body []byte, field string) string {
	t.Helper()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &obj))
	raw, ok := obj[field]
	require.True(t, ok, "missing field %s", field)
	return string(raw)
}
