// Package arbitrage holds the cross-exchange price gap computation: aligning
// per-exchange price tables, scoring and ranking gaps, screening low priced
// assets and simulating round-trip trades. Everything here except
// Calculator is pure and synchronous.
package arbitrage

import (
	"sort"

	"github.com/irfndi/cryptogap-go/internal/models"
)

// minExchanges is how many non-empty tables a comparison needs.
const minExchanges = 2

// UsableTables drops empty tables, which is how a failed fetch shows up.
// It reports false when fewer than two exchanges remain to compare.
func UsableTables(tables []models.ExchangeTable) ([]models.ExchangeTable, bool) {
	usable := make([]models.ExchangeTable, 0, len(tables))
	for _, t := range tables {
		if len(t.Prices) > 0 {
			usable = append(usable, t)
		}
	}
	return usable, len(usable) >= minExchanges
}

// Align inner-joins the usable tables on symbol. A symbol produces a row
// only when every usable table has it. Rows follow the order of symbols;
// with no symbols the first table's symbols are used, sorted. Self pairs
// (symbol == market) are left out and missing prices stay absent.
func Align(tables []models.ExchangeTable, symbols, markets []string) []models.AlignedRow {
	tables, ok := UsableTables(tables)
	if !ok {
		return nil
	}

	if len(symbols) == 0 {
		symbols = sortedSymbols(tables[0].Prices)
	}

	rows := make([]models.AlignedRow, 0, len(symbols))
	for _, symbol := range symbols {
		if !presentInAll(tables, symbol) {
			continue
		}

		prices := make(map[models.PriceKey]models.Price, len(markets)*len(tables))
		for _, market := range markets {
			if symbol == market {
				continue
			}
			for _, t := range tables {
				// A missing market reads as the zero Price, which is absent.
				prices[models.PriceKey{Market: market, Exchange: t.Exchange}] = t.Prices[symbol][market]
			}
		}
		rows = append(rows, models.AlignedRow{Symbol: symbol, Prices: prices})
	}
	return rows
}

func presentInAll(tables []models.ExchangeTable, symbol string) bool {
	for _, t := range tables {
		if _, ok := t.Prices[symbol]; !ok {
			return false
		}
	}
	return true
}

func sortedSymbols(table models.PriceTable) []string {
	symbols := make([]string, 0, len(table))
	for s := range table {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// exchangeNames lists the exchanges of tables in order.
func exchangeNames(tables []models.ExchangeTable) []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Exchange)
	}
	return names
}
