package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/irfndi/cryptogap-go/internal/arbitrage"

// SnapshotStore persists the single last seen opportunity across restarts.
type SnapshotStore interface {
	SaveLastOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) error
	LoadLastOpportunity(ctx context.Context) (*models.ArbitrageOpportunity, error)
}

// Settings is the tracked universe. Markets[0] is the reference market for
// the low-price screener.
type Settings struct {
	Symbols           []string
	Markets           []string
	LowPriceThreshold decimal.Decimal
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithSnapshotStore persists every new last opportunity to store.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(c *Calculator) { c.store = store }
}

// WithClock overrides the time source used to stamp opportunities.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// Calculator fetches every configured exchange and runs the pure pipeline
// over the result. It owns the LastOpportunity cell.
type Calculator struct {
	fetchers []exchange.Fetcher
	settings Settings
	last     LastOpportunity
	store    SnapshotStore
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewCalculator creates a calculator over fetchers, in the order given.
func NewCalculator(fetchers []exchange.Fetcher, settings Settings, logger *slog.Logger, opts ...Option) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.LowPriceThreshold.IsZero() {
		settings.LowPriceThreshold = decimal.NewFromInt(1)
	}
	c := &Calculator{
		fetchers: fetchers,
		settings: settings,
		logger:   logger.With("component", "arbitrage_calculator"),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Exchanges returns the exchange names in configured order.
func (c *Calculator) Exchanges() []string {
	names := make([]string, 0, len(c.fetchers))
	for _, f := range c.fetchers {
		names = append(names, f.Name())
	}
	return names
}

// Settings returns the tracked universe.
func (c *Calculator) Settings() Settings {
	return c.settings
}

// FetchAll polls every exchange concurrently. A failed exchange yields an
// empty table rather than an error.
func (c *Calculator) FetchAll(ctx context.Context, symbols, markets []string) []models.ExchangeTable {
	return c.fetch(ctx, c.fetchers, symbols, markets)
}

func (c *Calculator) fetch(ctx context.Context, fetchers []exchange.Fetcher, symbols, markets []string) []models.ExchangeTable {
	tables := make([]models.ExchangeTable, len(fetchers))

	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			prices, err := f.FetchPrices(ctx, symbols, markets)
			if err != nil {
				c.logger.Warn("Failed to fetch prices", "exchange", f.Name(), "error", err)
				prices = models.PriceTable{}
			}
			tables[i] = models.ExchangeTable{Exchange: f.Name(), Prices: prices}
			return nil
		})
	}
	_ = g.Wait()

	return tables
}

// ListOpportunities runs a full cycle: fetch, align, score, rank and update
// the last seen opportunity.
func (c *Calculator) ListOpportunities(ctx context.Context) []models.ArbitrageOpportunity {
	ctx, span := c.tracer.Start(ctx, "arbitrage.list_opportunities")
	defer span.End()

	tables := c.FetchAll(ctx, c.settings.Symbols, c.settings.Markets)
	ranked := c.Evaluate(ctx, tables)
	span.SetAttributes(attribute.Int("opportunities", len(ranked)))
	return ranked
}

// Evaluate ranks the opportunities in already fetched tables. Empty tables
// are skipped; with fewer than two left the result is empty and the last
// opportunity is untouched.
func (c *Calculator) Evaluate(ctx context.Context, tables []models.ExchangeTable) []models.ArbitrageOpportunity {
	usable, ok := UsableTables(tables)
	if len(usable) < len(tables) {
		c.logger.Warn("Failed to fetch prices from one or more exchanges",
			"exchanges", len(tables), "usable", len(usable))
	}
	if !ok {
		return []models.ArbitrageOpportunity{}
	}

	rows := Align(usable, c.settings.Symbols, c.settings.Markets)
	ranked := Rank(Score(rows, exchangeNames(usable), c.settings.Markets, c.now()))

	if c.last.Update(ranked) && c.store != nil {
		if err := c.store.SaveLastOpportunity(ctx, ranked[0]); err != nil {
			c.logger.Warn("Failed to persist last opportunity", "error", err)
		}
	}

	c.logger.Info("Arbitrage opportunities calculated", "rows", len(rows), "opportunities", len(ranked))
	return ranked
}

// LastOpportunity returns the top opportunity of the latest nonempty cycle.
func (c *Calculator) LastOpportunity() (models.ArbitrageOpportunity, bool) {
	return c.last.Get()
}

// RestoreLastOpportunity seeds the cell from the snapshot store, if any.
func (c *Calculator) RestoreLastOpportunity(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	opp, err := c.store.LoadLastOpportunity(ctx)
	if err != nil {
		return err
	}
	if opp != nil {
		c.last.Set(*opp)
		c.logger.Info("Restored last opportunity", "symbol", opp.Symbol, "market", opp.Market)
	}
	return nil
}

// ListLowPriceGainers screens the reference market for sub-threshold prices.
func (c *Calculator) ListLowPriceGainers(ctx context.Context) []models.LowPriceGainer {
	ctx, span := c.tracer.Start(ctx, "arbitrage.list_low_price_gainers")
	defer span.End()

	market := c.ReferenceMarket()
	if market == "" {
		return []models.LowPriceGainer{}
	}
	tables := c.FetchAll(ctx, c.settings.Symbols, []string{market})
	return c.LowPriceGainers(tables)
}

// LowPriceGainers runs the screener over already fetched tables.
func (c *Calculator) LowPriceGainers(tables []models.ExchangeTable) []models.LowPriceGainer {
	usable, ok := UsableTables(tables)
	if !ok {
		return []models.LowPriceGainer{}
	}
	market := c.ReferenceMarket()
	rows := Align(usable, c.settings.Symbols, []string{market})
	return ScreenLowPrice(rows, exchangeNames(usable), market, c.settings.LowPriceThreshold)
}

// ReferenceMarket is the first configured market.
func (c *Calculator) ReferenceMarket() string {
	if len(c.settings.Markets) == 0 {
		return ""
	}
	return c.settings.Markets[0]
}

// SimulateTrade fetches the current price of one symbol on the two named
// exchanges and simulates the round trip. Invalid requests return a
// utils.ValidationError; missing prices return ErrPriceUnavailable.
func (c *Calculator) SimulateTrade(ctx context.Context, req models.TradeSimulationRequest) (*models.TradeSimulation, error) {
	ctx, span := c.tracer.Start(ctx, "arbitrage.simulate_trade")
	defer span.End()

	req = NormalizeTradeRequest(req)
	exchanges := c.Exchanges()
	if err := ValidateTradeRequest(req, exchanges); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("market", req.Market),
	)

	tables := c.fetch(ctx, c.pair(req.BuyExchange, req.SellExchange), []string{req.Symbol}, []string{req.Market})
	rows := Align(tables, []string{req.Symbol}, []string{req.Market})
	return Simulate(req, rows, exchanges)
}

// pair returns the fetchers for the two named exchanges.
func (c *Calculator) pair(buy, sell string) []exchange.Fetcher {
	fetchers := make([]exchange.Fetcher, 0, 2)
	for _, f := range c.fetchers {
		if name := f.Name(); name == buy || name == sell {
			fetchers = append(fetchers, f)
		}
	}
	return fetchers
}

// LivePrices returns, per market, the symbols priced on every exchange with
// the spread between the highest and lowest quote.
func (c *Calculator) LivePrices(ctx context.Context) []models.LivePriceRow {
	ctx, span := c.tracer.Start(ctx, "arbitrage.live_prices")
	defer span.End()

	usable, ok := UsableTables(c.FetchAll(ctx, c.settings.Symbols, c.settings.Markets))
	if !ok {
		return []models.LivePriceRow{}
	}
	return LivePrices(Align(usable, c.settings.Symbols, c.settings.Markets), exchangeNames(usable), c.settings.Markets)
}

// LivePrices groups aligned rows by market, keeping rows quoted everywhere.
func LivePrices(rows []models.AlignedRow, exchanges, markets []string) []models.LivePriceRow {
	out := make([]models.LivePriceRow, 0)
	for _, market := range markets {
		for _, row := range rows {
			if row.Symbol == market {
				continue
			}
			quotes := make([]models.MarketQuote, 0, len(exchanges))
			var low, high decimal.Decimal
			complete := true
			for i, ex := range exchanges {
				price, ok := row.Lookup(market, ex)
				if !ok {
					complete = false
					break
				}
				if i == 0 || price.LessThan(low) {
					low = price
				}
				if i == 0 || price.GreaterThan(high) {
					high = price
				}
				quotes = append(quotes, models.MarketQuote{Exchange: ex, Price: &price})
			}
			if !complete || len(quotes) == 0 {
				continue
			}
			out = append(out, models.LivePriceRow{
				Symbol:       row.Symbol,
				Market:       market,
				Quotes:       quotes,
				PriceDiffPct: GapPercent(high, low),
			})
		}
	}
	return out
}
