package services

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/irfndi/cryptogap-go/internal/utils"
	"github.com/irfndi/cryptogap-go/pkg/ccxt"
)

const (
	orderBookDepth   = 5
	recentTradeLimit = 10
)

// MarketDataClient is the slice of the CCXT client coin details need.
type MarketDataClient interface {
	GetTicker(ctx context.Context, exchange, symbol string) (*ccxt.TickerResponse, error)
	GetOrderBook(ctx context.Context, exchange, symbol string, limit int) (*ccxt.OrderBookResponse, error)
	GetTrades(ctx context.Context, exchange, symbol string, limit int) (*ccxt.TradesResponse, error)
}

type coinExchange struct {
	name     string
	sourceID string
	naming   exchange.Naming
}

// CoinService collects ticker stats, order book and recent trades for one
// pair across every configured exchange.
type CoinService struct {
	client    MarketDataClient
	exchanges []coinExchange
	markets   []string
	logger    *slog.Logger
}

// NewCoinService creates a coin service over the configured exchanges.
func NewCoinService(client MarketDataClient, cfg config.ArbitrageConfig, logger *slog.Logger) *CoinService {
	if logger == nil {
		logger = slog.Default()
	}
	exchanges := make([]coinExchange, 0, len(cfg.Exchanges))
	for _, ex := range cfg.Exchanges {
		sourceID := ex.CCXTID
		if sourceID == "" {
			sourceID = ex.Name
		}
		exchanges = append(exchanges, coinExchange{
			name:     ex.Name,
			sourceID: sourceID,
			naming:   exchange.NamingFromConfig(ex),
		})
	}
	return &CoinService{
		client:    client,
		exchanges: exchanges,
		markets:   cfg.Markets,
		logger:    logger.With("component", "coin_service"),
	}
}

// GetCoinDetails returns one entry per exchange in configured order. An
// exchange that fails keeps its entry with Error set. An empty market means
// the reference market.
func (s *CoinService) GetCoinDetails(ctx context.Context, symbol, market string) ([]models.CoinDetail, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	market = strings.ToUpper(strings.TrimSpace(market))
	if market == "" && len(s.markets) > 0 {
		market = s.markets[0]
	}

	if symbol == "" {
		return nil, utils.NewFieldError("symbol", "is required")
	}
	if market == "" {
		return nil, utils.NewFieldError("market", "is required")
	}
	if symbol == market {
		return nil, utils.NewFieldError("market", "must differ from symbol %s", symbol)
	}

	details := make([]models.CoinDetail, len(s.exchanges))
	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range s.exchanges {
		g.Go(func() error {
			details[i] = s.fetchDetail(gctx, ex, symbol, market)
			return nil
		})
	}
	_ = g.Wait()

	return details, nil
}

func (s *CoinService) fetchDetail(ctx context.Context, ex coinExchange, symbol, market string) models.CoinDetail {
	pair := ex.naming.TradingPair(symbol, market)
	detail := models.CoinDetail{
		Exchange:    ex.name,
		Symbol:      symbol,
		Market:      market,
		TradingPair: pair,
	}

	ticker, err := s.client.GetTicker(ctx, ex.sourceID, pair)
	if err != nil {
		s.logger.Warn("Failed to fetch ticker", "exchange", ex.name, "pair", pair, "error", err)
		detail.Error = err.Error()
		return detail
	}
	detail.Stats = tickerStats(ticker.Ticker)

	if book, err := s.client.GetOrderBook(ctx, ex.sourceID, pair, orderBookDepth); err != nil {
		s.logger.Warn("Failed to fetch order book", "exchange", ex.name, "pair", pair, "error", err)
	} else {
		detail.Bids = bookLevels(book.OrderBook.Bids, orderBookDepth)
		detail.Asks = bookLevels(book.OrderBook.Asks, orderBookDepth)
	}

	if trades, err := s.client.GetTrades(ctx, ex.sourceID, pair, recentTradeLimit); err != nil {
		s.logger.Warn("Failed to fetch trades", "exchange", ex.name, "pair", pair, "error", err)
	} else {
		detail.RecentTrades = recentTrades(trades.Trades, recentTradeLimit)
	}

	return detail
}

func tickerStats(t ccxt.Ticker) *models.TickerStats {
	return &models.TickerStats{
		Last:        t.Last.Decimal,
		Bid:         t.Bid.Decimal,
		Ask:         t.Ask.Decimal,
		High:        t.High.Decimal,
		Low:         t.Low.Decimal,
		Volume:      t.Volume.Decimal,
		QuoteVolume: t.QuoteVolume.Decimal,
		Change:      t.Change.Decimal,
		Percentage:  t.Percentage.Decimal,
		Timestamp:   t.Time(),
	}
}

func bookLevels(entries []ccxt.OrderBookEntry, limit int) []models.BookLevel {
	if len(entries) > limit {
		entries = entries[:limit]
	}
	levels := make([]models.BookLevel, 0, len(entries))
	for _, e := range entries {
		levels = append(levels, models.BookLevel{Price: e.Price(), Amount: e.Amount()})
	}
	return levels
}

func recentTrades(trades []ccxt.Trade, limit int) []models.RecentTrade {
	if len(trades) > limit {
		trades = trades[:limit]
	}
	out := make([]models.RecentTrade, 0, len(trades))
	for _, t := range trades {
		out = append(out, models.RecentTrade{
			Side:      t.Side,
			Price:     t.Price,
			Amount:    t.Amount,
			Timestamp: t.Time(),
		})
	}
	return out
}
