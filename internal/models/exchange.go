package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeInfo describes a configured exchange for API responses.
// TakerFee is informational only; no calculation applies it.
type ExchangeInfo struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	CCXTID      string          `json:"ccxt_id"`
	TakerFee    decimal.Decimal `json:"taker_fee"`
}

// TickerStats is a 24h ticker summary for one trading pair.
type TickerStats struct {
	Last        decimal.Decimal `json:"last"`
	Bid         decimal.Decimal `json:"bid"`
	Ask         decimal.Decimal `json:"ask"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Volume      decimal.Decimal `json:"volume"`
	QuoteVolume decimal.Decimal `json:"quote_volume"`
	Change      decimal.Decimal `json:"change"`
	Percentage  decimal.Decimal `json:"percentage"`
	Timestamp   time.Time       `json:"timestamp"`
}

// BookLevel is one price level of an order book.
type BookLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// RecentTrade is a single public trade.
type RecentTrade struct {
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// CoinDetail gathers the market detail of one pair on one exchange.
type CoinDetail struct {
	Exchange     string        `json:"exchange"`
	Symbol       string        `json:"symbol"`
	Market       string        `json:"market"`
	TradingPair  string        `json:"trading_pair"`
	Stats        *TickerStats  `json:"stats,omitempty"`
	Bids         []BookLevel   `json:"bids,omitempty"`
	Asks         []BookLevel   `json:"asks,omitempty"`
	RecentTrades []RecentTrade `json:"recent_trades,omitempty"`
	Error        string        `json:"error,omitempty"`
}
