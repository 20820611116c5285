package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/cryptogap-go/internal/arbitrage"
	"github.com/irfndi/cryptogap-go/internal/cache"
	"github.com/irfndi/cryptogap-go/internal/config"
)

type countingSource struct {
	mu     sync.Mutex
	calls  int
	prices map[string]map[string]decimal.Decimal
}

func (s *countingSource) FetchLastPrices(ctx context.Context, exchange string, pairs []string) (map[string]decimal.Decimal, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.prices[exchange], nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func arbitrageConfig() config.ArbitrageConfig {
	return config.ArbitrageConfig{
		Symbols: []string{"BTC"},
		Markets: []string{"USDT"},
		Exchanges: []config.ExchangeConfig{
			{Name: "binance", CCXTID: "binance", Separator: "/"},
			{Name: "kraken", CCXTID: "kraken", Separator: "/", Aliases: map[string]string{"BTC": "XBT"}},
		},
		LowPriceThreshold: 0.5,
	}
}

func newSource() *countingSource {
	return &countingSource{prices: map[string]map[string]decimal.Decimal{
		"binance": {"BTC/USDT": decimal.NewFromInt(100)},
		"kraken":  {"XBT/USDT": decimal.NewFromInt(102)},
	}}
}

func TestCalculatorSettings(t *testing.T) {
	settings := calculatorSettings(arbitrageConfig())
	assert.Equal(t, []string{"BTC"}, settings.Symbols)
	assert.Equal(t, []string{"USDT"}, settings.Markets)
	assert.True(t, decimal.RequireFromString("0.5").Equal(settings.LowPriceThreshold))
}

func TestBuildFetchers_EndToEnd(t *testing.T) {
	source := newSource()
	fetchers := buildFetchers(arbitrageConfig(), source, nil, nil)
	require.Len(t, fetchers, 2)
	assert.Equal(t, "binance", fetchers[0].Name())
	assert.Equal(t, "kraken", fetchers[1].Name())

	calc := arbitrage.NewCalculator(fetchers, calculatorSettings(arbitrageConfig()), nil)
	ranked := calc.ListOpportunities(context.Background())
	require.Len(t, ranked, 1)
	assert.Equal(t, "binance", ranked[0].BuyExchange)
	assert.Equal(t, "kraken", ranked[0].SellExchange)
	assert.True(t, decimal.NewFromInt(2).Equal(ranked[0].PriceDiffPct))
}

func TestBuildFetchers_WithPriceCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	priceCache := cache.NewPriceCache(client, time.Minute, nil)
	source := newSource()
	fetchers := buildFetchers(arbitrageConfig(), source, priceCache, nil)
	calc := arbitrage.NewCalculator(fetchers, calculatorSettings(arbitrageConfig()), nil)

	first := calc.ListOpportunities(context.Background())
	second := calc.ListOpportunities(context.Background())

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, 2, source.callCount())
	assert.Equal(t, int64(2), priceCache.GetStats().Hits)
}
