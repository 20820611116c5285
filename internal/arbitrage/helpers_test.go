package arbitrage

import (
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func p(s string) models.Price {
	return models.PriceOf(d(s))
}

func table(exchange string, prices models.PriceTable) models.ExchangeTable {
	return models.ExchangeTable{Exchange: exchange, Prices: prices}
}
