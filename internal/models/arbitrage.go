package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArbitrageOpportunity is a buy-low/sell-high gap for one (symbol, market)
// pair between two exchanges. BuyPrice is never above SellPrice.
type ArbitrageOpportunity struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Market       string          `json:"market"`
	BuyExchange  string          `json:"buy_exchange"`
	SellExchange string          `json:"sell_exchange"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	PriceDiffPct decimal.Decimal `json:"price_diff_pct"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Pair returns the "BASE/QUOTE" form of the opportunity.
func (o ArbitrageOpportunity) Pair() string {
	return o.Symbol + "/" + o.Market
}

// LowPriceGainer is a sub-unit priced asset with a gap between two exchanges
// in the reference market.
type LowPriceGainer struct {
	Symbol       string          `json:"symbol"`
	ExchangeA    string          `json:"exchange_a"`
	ExchangeB    string          `json:"exchange_b"`
	PriceA       decimal.Decimal `json:"price_a"`
	PriceB       decimal.Decimal `json:"price_b"`
	PriceDiffPct decimal.Decimal `json:"price_diff_pct"`
	AvgPrice     decimal.Decimal `json:"avg_price"`
}

// ArbitrageOpportunitiesResponse represents the response for arbitrage opportunities list
type ArbitrageOpportunitiesResponse struct {
	Opportunities []ArbitrageOpportunity `json:"opportunities"`
	Count         int                    `json:"count"`
	Timestamp     time.Time              `json:"timestamp"`
}

// LowPriceGainersResponse represents the response for the low-price screener
type LowPriceGainersResponse struct {
	Market    string           `json:"market"`
	Gainers   []LowPriceGainer `json:"gainers"`
	Count     int              `json:"count"`
	Timestamp time.Time        `json:"timestamp"`
}
