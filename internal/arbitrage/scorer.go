package arbitrage

import (
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GapPercent is |a - b| / min(a, b) * 100. Both prices must be positive.
func GapPercent(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs().Div(decimal.Min(a, b)).Mul(hundred)
}

// Score emits one opportunity per (symbol, market, exchange pair) where both
// exchanges quote a positive price and the prices differ. No fee, slippage
// or materiality threshold is applied.
func Score(rows []models.AlignedRow, exchanges, markets []string, now time.Time) []models.ArbitrageOpportunity {
	opportunities := make([]models.ArbitrageOpportunity, 0)
	for _, row := range rows {
		for _, market := range markets {
			if row.Symbol == market {
				continue
			}
			for i := 0; i < len(exchanges); i++ {
				for j := i + 1; j < len(exchanges); j++ {
					opp, ok := scorePair(row, market, exchanges[i], exchanges[j], now)
					if ok {
						opportunities = append(opportunities, opp)
					}
				}
			}
		}
	}
	return opportunities
}

func scorePair(row models.AlignedRow, market, exA, exB string, now time.Time) (models.ArbitrageOpportunity, bool) {
	priceA, okA := row.Lookup(market, exA)
	priceB, okB := row.Lookup(market, exB)
	if !okA || !okB {
		return models.ArbitrageOpportunity{}, false
	}

	diff := GapPercent(priceA, priceB)
	if !diff.IsPositive() {
		return models.ArbitrageOpportunity{}, false
	}

	// Buy on the cheaper side.
	buyEx, sellEx, buyPrice, sellPrice := exB, exA, priceB, priceA
	if priceA.LessThan(priceB) {
		buyEx, sellEx, buyPrice, sellPrice = exA, exB, priceA, priceB
	}

	return models.ArbitrageOpportunity{
		ID:           uuid.NewString(),
		Symbol:       row.Symbol,
		Market:       market,
		BuyExchange:  buyEx,
		SellExchange: sellEx,
		BuyPrice:     buyPrice,
		SellPrice:    sellPrice,
		PriceDiffPct: diff,
		Timestamp:    now,
	}, true
}
