// Package exchange turns raw exchange tickers into per-exchange price tables.
// Every exchange goes through the same Adapter; naming quirks such as
// inverse listings or alternate ticker codes live in a Naming strategy.
package exchange

import (
	"context"

	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
)

// Fetcher is the capability the calculator needs from an exchange.
type Fetcher interface {
	Name() string
	FetchPrices(ctx context.Context, symbols, markets []string) (models.PriceTable, error)
}

// TickerSource returns last traded prices keyed by the exchange's own pair
// names. Pairs the source does not know are simply missing from the result.
type TickerSource interface {
	FetchLastPrices(ctx context.Context, exchange string, pairs []string) (map[string]decimal.Decimal, error)
}
