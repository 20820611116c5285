package models

import (
	"github.com/shopspring/decimal"
)

// Price is a quoted price that may be absent. An invalid value means the
// exchange did not report a usable quote; it is never treated as zero.
type Price = decimal.NullDecimal

// PriceOf wraps a known price.
func PriceOf(d decimal.Decimal) Price {
	return decimal.NewNullDecimal(d)
}

// NoPrice is the absent price.
var NoPrice = Price{}

// MarketPrices maps a quote market (e.g. "USDT") to a price-or-absent.
type MarketPrices map[string]Price

// PriceTable is what a single exchange reports for one poll:
// symbol -> market -> price-or-absent.
type PriceTable map[string]MarketPrices

// ExchangeTable pairs a price table with the exchange it came from.
type ExchangeTable struct {
	Exchange string     `json:"exchange"`
	Prices   PriceTable `json:"prices"`
}

// PriceRow is one asset's prices on one exchange.
type PriceRow struct {
	Symbol string       `json:"symbol"`
	Prices MarketPrices `json:"prices"`
}

// Rows flattens the table into rows following the given symbol order.
// Symbols missing from the table are skipped.
func (t PriceTable) Rows(symbols []string) []PriceRow {
	rows := make([]PriceRow, 0, len(symbols))
	for _, symbol := range symbols {
		prices, ok := t[symbol]
		if !ok {
			continue
		}
		rows = append(rows, PriceRow{Symbol: symbol, Prices: prices})
	}
	return rows
}

// PriceKey addresses one cell of an aligned row.
type PriceKey struct {
	Market   string `json:"market"`
	Exchange string `json:"exchange"`
}

// AlignedRow joins the price rows of several exchanges on symbol.
type AlignedRow struct {
	Symbol string
	Prices map[PriceKey]Price
}

// Lookup returns the usable price for a market on an exchange. Absent,
// zero and negative quotes all report ok == false.
func (r AlignedRow) Lookup(market, exchange string) (decimal.Decimal, bool) {
	p, ok := r.Prices[PriceKey{Market: market, Exchange: exchange}]
	if !ok || !p.Valid || !p.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	return p.Decimal, true
}

// MarketQuote is an aligned price for API responses.
type MarketQuote struct {
	Exchange string           `json:"exchange"`
	Price    *decimal.Decimal `json:"price"`
}

// LivePriceRow is the aligned view of one symbol in one market.
type LivePriceRow struct {
	Symbol       string          `json:"symbol"`
	Market       string          `json:"market"`
	Quotes       []MarketQuote   `json:"quotes"`
	PriceDiffPct decimal.Decimal `json:"price_diff_pct"`
}
