package ccxt

import (
	"context"

	"github.com/shopspring/decimal"
)

// CCXTClient defines the interface for low-level CCXT HTTP operations
type CCXTClient interface {
	HealthCheck(ctx context.Context) (*HealthResponse, error)

	GetTicker(ctx context.Context, exchange, symbol string) (*TickerResponse, error)
	GetTickers(ctx context.Context, req *TickersRequest) (*TickersResponse, error)
	GetOrderBook(ctx context.Context, exchange, symbol string, limit int) (*OrderBookResponse, error)
	GetTrades(ctx context.Context, exchange, symbol string, limit int) (*TradesResponse, error)

	// FetchLastPrices reports the last price of every pair the exchange
	// quotes, keyed by pair name.
	FetchLastPrices(ctx context.Context, exchange string, pairs []string) (map[string]decimal.Decimal, error)

	Close() error
}

var _ CCXTClient = (*Client)(nil)
