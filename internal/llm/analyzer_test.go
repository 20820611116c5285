package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	auth string
	body chatRequest
}

func newTestAnalyzer(t *testing.T, status int, response string) (*Analyzer, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		captured.auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	a := NewAnalyzer(config.LLMConfig{
		APIKey:      "test-key",
		BaseURL:     server.URL + "/",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.7,
		MaxTokens:   500,
	}, nil)
	return a, captured
}

const okResponse = `{"choices":[{"message":{"role":"assistant","content":"  Buy low, sell high.  "}}]}`

func sampleOpportunity() *models.ArbitrageOpportunity {
	return &models.ArbitrageOpportunity{
		Symbol:       "BTC",
		Market:       "USDT",
		BuyExchange:  "binance",
		SellExchange: "kraken",
		BuyPrice:     decimal.NewFromInt(100),
		SellPrice:    decimal.NewFromInt(102),
		PriceDiffPct: decimal.NewFromInt(2),
		Timestamp:    time.Now(),
	}
}

func TestAnalyzeOpportunity(t *testing.T) {
	a, captured := newTestAnalyzer(t, http.StatusOK, okResponse)

	text, err := a.AnalyzeOpportunity(context.Background(), sampleOpportunity())
	require.NoError(t, err)
	assert.Equal(t, "Buy low, sell high.", text)

	assert.Equal(t, "Bearer test-key", captured.auth)
	assert.Equal(t, "llama-3.3-70b-versatile", captured.body.Model)
	assert.Equal(t, 500, captured.body.MaxTokens)
	assert.InDelta(t, 0.7, captured.body.Temperature, 1e-9)
	require.Len(t, captured.body.Messages, 2)
	assert.Equal(t, "system", captured.body.Messages[0].Role)
	assert.Contains(t, captured.body.Messages[1].Content, "Buy Exchange: binance")
	assert.Contains(t, captured.body.Messages[1].Content, "Price Difference: 2.00%")
}

func TestAnalyzeLowPriceGainer(t *testing.T) {
	a, captured := newTestAnalyzer(t, http.StatusOK, okResponse)

	_, err := a.AnalyzeLowPriceGainer(context.Background(), &models.LowPriceGainer{
		Symbol:       "DOGE",
		ExchangeA:    "binance",
		ExchangeB:    "kraken",
		PriceA:       decimal.RequireFromString("0.1"),
		PriceB:       decimal.RequireFromString("0.11"),
		PriceDiffPct: decimal.NewFromInt(10),
		AvgPrice:     decimal.RequireFromString("0.105"),
	})
	require.NoError(t, err)

	prompt := captured.body.Messages[1].Content
	assert.Contains(t, prompt, "Binance Price: $0.100000")
	assert.Contains(t, prompt, "Kraken Price: $0.110000")
	assert.Contains(t, prompt, "Average Price: $0.105000")
}

func TestAnalyzeCoin(t *testing.T) {
	a, captured := newTestAnalyzer(t, http.StatusOK, okResponse)

	trades := make([]models.RecentTrade, 0, 7)
	for i := 0; i < 7; i++ {
		trades = append(trades, models.RecentTrade{Side: "sell", Price: decimal.NewFromInt(int64(50000 + i)), Amount: decimal.RequireFromString("0.5")})
	}
	details := []models.CoinDetail{
		{
			Exchange:     "binance",
			TradingPair:  "BTC/USDT",
			Stats:        &models.TickerStats{Last: decimal.NewFromInt(50000)},
			Bids:         []models.BookLevel{{Price: decimal.NewFromInt(49999), Amount: decimal.NewFromInt(1)}},
			RecentTrades: trades,
		},
		{Exchange: "kraken", Error: "timeout"},
	}

	_, err := a.AnalyzeCoin(context.Background(), "BTC", details)
	require.NoError(t, err)

	assert.Equal(t, coinAnalysisMaxTokens, captured.body.MaxTokens)
	prompt := captured.body.Messages[1].Content
	assert.Contains(t, prompt, "== Binance (BTC/USDT) ==")
	assert.NotContains(t, prompt, "Kraken")
	assert.Contains(t, prompt, "- Sell 0.5 at 50004")
	assert.NotContains(t, prompt, "at 50005", "only five trades are included")
	assert.Contains(t, prompt, "- Price: 49999, Quantity: 1")
	assert.Contains(t, captured.body.Messages[0].Content, "specializing in BTC trading")
}

func TestAnalyzer_NoDataSkipsAPI(t *testing.T) {
	a := NewAnalyzer(config.LLMConfig{BaseURL: "http://127.0.0.1:1"}, nil)

	text, err := a.AnalyzeOpportunity(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "No arbitrage opportunity data provided.", text)

	text, err = a.AnalyzeLowPriceGainer(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "No low-price gainer data provided.", text)

	text, err = a.AnalyzeCoin(context.Background(), "ETH", []models.CoinDetail{{Exchange: "kraken", Error: "down"}})
	require.NoError(t, err)
	assert.Equal(t, "No data available for ETH.", text)
}

func TestAnalyzer_NotConfigured(t *testing.T) {
	a := NewAnalyzer(config.LLMConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	assert.False(t, a.Enabled())

	_, err := a.AnalyzeOpportunity(context.Background(), sampleOpportunity())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAnalyzer_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		want     string
	}{
		{"structured error", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, "LLM API error (401): Invalid API Key"},
		{"plain error", http.StatusBadGateway, `bad gateway`, "LLM API error (502): bad gateway"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"garbage", http.StatusOK, `{{`, "failed to decode LLM response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAnalyzer(t, tt.status, tt.response)
			_, err := a.AnalyzeOpportunity(context.Background(), sampleOpportunity())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
