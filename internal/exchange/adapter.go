package exchange

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Adapter builds price tables for one exchange from a TickerSource.
type Adapter struct {
	name     string
	sourceID string
	naming   Naming
	source   TickerSource
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewAdapter creates an adapter for a configured exchange. A non-positive
// rps disables rate limiting.
func NewAdapter(cfg config.ExchangeConfig, source TickerSource, rps float64, logger *slog.Logger) *Adapter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if logger == nil {
		logger = slog.Default()
	}
	sourceID := cfg.CCXTID
	if sourceID == "" {
		sourceID = cfg.Name
	}
	return &Adapter{
		name:     cfg.Name,
		sourceID: sourceID,
		naming:   NamingFromConfig(cfg),
		source:   source,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With("component", "exchange_adapter", "exchange", cfg.Name),
	}
}

// Name returns the configured exchange name.
func (a *Adapter) Name() string {
	return a.name
}

// SourceID is the id the ticker source knows this exchange by.
func (a *Adapter) SourceID() string {
	return a.sourceID
}

// Naming returns the adapter's pair naming strategy.
func (a *Adapter) Naming() Naming {
	return a.naming
}

// FetchPrices returns symbol -> market -> price-or-absent. Every requested
// symbol gets a row; a symbol is never priced against itself.
func (a *Adapter) FetchPrices(ctx context.Context, symbols, markets []string) (models.PriceTable, error) {
	pairs := a.candidatePairs(symbols, markets)
	if len(pairs) == 0 {
		return models.PriceTable{}, nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", a.name, err)
	}

	quotes, err := a.source.FetchLastPrices(ctx, a.sourceID, pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickers from %s: %w", a.name, err)
	}

	table := make(models.PriceTable, len(symbols))
	resolved := 0
	for _, symbol := range symbols {
		row := make(models.MarketPrices, len(markets))
		for _, market := range markets {
			if symbol == market {
				continue
			}
			price := a.resolve(quotes, symbol, market)
			if price.Valid {
				resolved++
			}
			row[market] = price
		}
		table[symbol] = row
	}

	a.logger.Debug("Price table built", "symbols", len(symbols), "resolved", resolved, "quotes", len(quotes))
	return table, nil
}

func (a *Adapter) candidatePairs(symbols, markets []string) []string {
	var pairs []string
	seen := make(map[string]bool)
	for _, symbol := range symbols {
		for _, market := range markets {
			if symbol == market {
				continue
			}
			for _, c := range a.naming.Candidates(symbol, market) {
				if !seen[c.Pair] {
					seen[c.Pair] = true
					pairs = append(pairs, c.Pair)
				}
			}
		}
	}
	return pairs
}

// resolve walks the naming candidates and returns the first usable price.
func (a *Adapter) resolve(quotes map[string]decimal.Decimal, base, quote string) models.Price {
	for _, c := range a.naming.Candidates(base, quote) {
		p, ok := quotes[c.Pair]
		if !ok || !p.IsPositive() {
			continue
		}
		if c.Inverse {
			return models.PriceOf(decimal.NewFromInt(1).Div(p))
		}
		return models.PriceOf(p)
	}
	return models.NoPrice
}
