package arbitrage

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfndi/cryptogap-go/internal/models"
)

var benchMarkets = []string{"USDT", "BTC", "ETH"}

func benchTables(exchanges []string, symbols int) []models.ExchangeTable {
	tables := make([]models.ExchangeTable, 0, len(exchanges))
	for e, name := range exchanges {
		prices := models.PriceTable{}
		for s := 0; s < symbols; s++ {
			quotes := map[string]models.Price{}
			for m, market := range benchMarkets {
				// Offset each exchange so most pairs produce a gap.
				base := decimal.NewFromInt(int64(s*10 + m + 1))
				quotes[market] = models.PriceOf(base.Add(decimal.New(int64(e), -2)))
			}
			prices[fmt.Sprintf("C%04d", s)] = quotes
		}
		tables = append(tables, models.ExchangeTable{Exchange: name, Prices: prices})
	}
	return tables
}

// BenchmarkPipeline measures align, score and rank over one refresh.
func BenchmarkPipeline(b *testing.B) {
	exchanges := []string{"binance", "kraken", "bittrex"}
	now := time.Now()

	for _, symbols := range []int{50, 500} {
		tables := benchTables(exchanges, symbols)
		b.Run(fmt.Sprintf("symbols=%d", symbols), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				rows := Align(tables, nil, benchMarkets)
				ranked := Rank(Score(rows, exchanges, benchMarkets, now))
				if len(ranked) == 0 {
					b.Fatal("expected opportunities")
				}
			}
		})
	}
}

func BenchmarkScreenLowPrice(b *testing.B) {
	exchanges := []string{"binance", "kraken"}
	rows := Align(benchTables(exchanges, 500), nil, benchMarkets)
	threshold := decimal.NewFromInt(1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ScreenLowPrice(rows, exchanges, "USDT", threshold)
	}
}
