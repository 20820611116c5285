package arbitrage

import (
	"sort"

	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// ScreenLowPrice keeps, for the reference market, every exchange pair where
// both sides quote a price and at least one side is below threshold. The
// result is sorted by descending gap.
func ScreenLowPrice(rows []models.AlignedRow, exchanges []string, market string, threshold decimal.Decimal) []models.LowPriceGainer {
	gainers := make([]models.LowPriceGainer, 0)
	for _, row := range rows {
		if row.Symbol == market {
			continue
		}
		for i := 0; i < len(exchanges); i++ {
			for j := i + 1; j < len(exchanges); j++ {
				priceA, okA := row.Lookup(market, exchanges[i])
				priceB, okB := row.Lookup(market, exchanges[j])
				if !okA || !okB {
					continue
				}
				if !priceA.LessThan(threshold) && !priceB.LessThan(threshold) {
					continue
				}
				gainers = append(gainers, models.LowPriceGainer{
					Symbol:       row.Symbol,
					ExchangeA:    exchanges[i],
					ExchangeB:    exchanges[j],
					PriceA:       priceA,
					PriceB:       priceB,
					PriceDiffPct: GapPercent(priceA, priceB),
					AvgPrice:     priceA.Add(priceB).Div(two),
				})
			}
		}
	}

	sort.SliceStable(gainers, func(i, j int) bool {
		return gainers[i].PriceDiffPct.GreaterThan(gainers[j].PriceDiffPct)
	})
	return gainers
}
