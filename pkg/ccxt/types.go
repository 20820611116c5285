package ccxt

import (
	"time"

	"github.com/shopspring/decimal"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ErrorResponse represents an error response from the CCXT service
type ErrorResponse struct {
	Error string `json:"error"`
}

// Ticker is a CCXT unified ticker. Any price field may be null.
type Ticker struct {
	Symbol      string              `json:"symbol"`
	Last        decimal.NullDecimal `json:"last"`
	Bid         decimal.NullDecimal `json:"bid"`
	Ask         decimal.NullDecimal `json:"ask"`
	High        decimal.NullDecimal `json:"high"`
	Low         decimal.NullDecimal `json:"low"`
	Volume      decimal.NullDecimal `json:"baseVolume"`
	QuoteVolume decimal.NullDecimal `json:"quoteVolume"`
	Change      decimal.NullDecimal `json:"change"`
	Percentage  decimal.NullDecimal `json:"percentage"`
	Timestamp   int64               `json:"timestamp"`
}

// Time converts the millisecond timestamp.
func (t Ticker) Time() time.Time {
	if t.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.Timestamp).UTC()
}

// TickerResponse represents the response from /api/ticker/{exchange}/{symbol}
type TickerResponse struct {
	Exchange  string `json:"exchange"`
	Symbol    string `json:"symbol"`
	Ticker    Ticker `json:"ticker"`
	Timestamp string `json:"timestamp"`
}

// TickersRequest represents the request body for /api/tickers
type TickersRequest struct {
	Symbols   []string `json:"symbols"`
	Exchanges []string `json:"exchanges"`
}

// TickersResponse represents the response from /api/tickers
type TickersResponse struct {
	Tickers   []TickerData `json:"tickers"`
	Timestamp string       `json:"timestamp"`
}

// TickerData represents ticker data with exchange information
type TickerData struct {
	Exchange string `json:"exchange"`
	Ticker   Ticker `json:"ticker"`
}

// OrderBookEntry is a [price, amount] level.
type OrderBookEntry [2]decimal.Decimal

// Price of the level.
func (e OrderBookEntry) Price() decimal.Decimal { return e[0] }

// Amount available at the level.
func (e OrderBookEntry) Amount() decimal.Decimal { return e[1] }

// OrderBook represents order book data
type OrderBook struct {
	Symbol    string           `json:"symbol"`
	Bids      []OrderBookEntry `json:"bids"`
	Asks      []OrderBookEntry `json:"asks"`
	Timestamp int64            `json:"timestamp"`
}

// OrderBookResponse represents the response from /api/orderbook/{exchange}/{symbol}
type OrderBookResponse struct {
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	OrderBook OrderBook `json:"orderbook"`
	Timestamp string    `json:"timestamp"`
}

// Trade represents a single trade
type Trade struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"` // 'buy' or 'sell'
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
}

// Time converts the millisecond timestamp.
func (t Trade) Time() time.Time {
	return time.UnixMilli(t.Timestamp).UTC()
}

// TradesResponse represents the response from /api/trades/{exchange}/{symbol}
type TradesResponse struct {
	Exchange  string  `json:"exchange"`
	Symbol    string  `json:"symbol"`
	Trades    []Trade `json:"trades"`
	Timestamp string  `json:"timestamp"`
}
