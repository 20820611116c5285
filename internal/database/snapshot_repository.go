package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// snapshotKey is the only row of last_opportunity.
const snapshotKey = "current"

const createSnapshotTable = `
	CREATE TABLE IF NOT EXISTS last_opportunity (
		snapshot_key   TEXT PRIMARY KEY,
		id             TEXT NOT NULL,
		symbol         TEXT NOT NULL,
		market         TEXT NOT NULL,
		buy_exchange   TEXT NOT NULL,
		sell_exchange  TEXT NOT NULL,
		buy_price      NUMERIC NOT NULL,
		sell_price     NUMERIC NOT NULL,
		price_diff_pct NUMERIC NOT NULL,
		observed_at    TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
`

const upsertSnapshot = `
	INSERT INTO last_opportunity (snapshot_key, id, symbol, market, buy_exchange, sell_exchange,
		buy_price, sell_price, price_diff_pct, observed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9::numeric, $10)
	ON CONFLICT (snapshot_key)
	DO UPDATE SET
		id = EXCLUDED.id,
		symbol = EXCLUDED.symbol,
		market = EXCLUDED.market,
		buy_exchange = EXCLUDED.buy_exchange,
		sell_exchange = EXCLUDED.sell_exchange,
		buy_price = EXCLUDED.buy_price,
		sell_price = EXCLUDED.sell_price,
		price_diff_pct = EXCLUDED.price_diff_pct,
		observed_at = EXCLUDED.observed_at,
		updated_at = CURRENT_TIMESTAMP
`

const selectSnapshot = `
	SELECT id, symbol, market, buy_exchange, sell_exchange,
		buy_price::text, sell_price::text, price_diff_pct::text, observed_at
	FROM last_opportunity
	WHERE snapshot_key = $1
`

// SnapshotRepository keeps the single last seen opportunity in PostgreSQL.
// It stores no history.
type SnapshotRepository struct {
	pool DatabasePool
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(pool DatabasePool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// EnsureSchema creates the snapshot table when missing.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("failed to create last_opportunity table: %w", err)
	}
	return nil
}

// SaveLastOpportunity overwrites the stored opportunity.
func (r *SnapshotRepository) SaveLastOpportunity(ctx context.Context, opp models.ArbitrageOpportunity) error {
	_, err := r.pool.Exec(ctx, upsertSnapshot,
		snapshotKey,
		opp.ID,
		opp.Symbol,
		opp.Market,
		opp.BuyExchange,
		opp.SellExchange,
		opp.BuyPrice.String(),
		opp.SellPrice.String(),
		opp.PriceDiffPct.String(),
		opp.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save last opportunity: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"symbol": opp.Symbol,
		"market": opp.Market,
		"gap":    opp.PriceDiffPct.StringFixed(4),
	}).Debug("Last opportunity saved")
	return nil
}

// LoadLastOpportunity returns the stored opportunity, or nil when none was
// ever saved.
func (r *SnapshotRepository) LoadLastOpportunity(ctx context.Context) (*models.ArbitrageOpportunity, error) {
	var (
		opp                      models.ArbitrageOpportunity
		buyPrice, sellPrice, gap string
		observedAt               time.Time
	)
	err := r.pool.QueryRow(ctx, selectSnapshot, snapshotKey).Scan(
		&opp.ID,
		&opp.Symbol,
		&opp.Market,
		&opp.BuyExchange,
		&opp.SellExchange,
		&buyPrice,
		&sellPrice,
		&gap,
		&observedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last opportunity: %w", err)
	}

	if opp.BuyPrice, err = decimal.NewFromString(buyPrice); err != nil {
		return nil, fmt.Errorf("invalid stored buy_price %q: %w", buyPrice, err)
	}
	if opp.SellPrice, err = decimal.NewFromString(sellPrice); err != nil {
		return nil, fmt.Errorf("invalid stored sell_price %q: %w", sellPrice, err)
	}
	if opp.PriceDiffPct, err = decimal.NewFromString(gap); err != nil {
		return nil, fmt.Errorf("invalid stored price_diff_pct %q: %w", gap, err)
	}
	opp.Timestamp = observedAt.UTC()

	return &opp, nil
}
