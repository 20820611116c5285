package arbitrage

import (
	"testing"
	"time"

	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exchanges = []string{"binance", "kraken"}

func TestGapPercent(t *testing.T) {
	assert.True(t, d("2").Equal(GapPercent(d("100"), d("102"))))
	assert.True(t, d("2").Equal(GapPercent(d("102"), d("100"))))
	assert.True(t, GapPercent(d("5"), d("5")).IsZero())
}

func TestScore_EndToEndExample(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tables := []models.ExchangeTable{
		table("binance", models.PriceTable{"BTC": {"USDT": p("100")}}),
		table("kraken", models.PriceTable{"BTC": {"USDT": p("102")}}),
	}

	rows := Align(tables, []string{"BTC"}, []string{"USDT"})
	opps := Score(rows, exchanges, []string{"USDT"}, now)

	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, "BTC", opp.Symbol)
	assert.Equal(t, "USDT", opp.Market)
	assert.Equal(t, "binance", opp.BuyExchange)
	assert.Equal(t, "kraken", opp.SellExchange)
	assert.True(t, d("100").Equal(opp.BuyPrice))
	assert.True(t, d("102").Equal(opp.SellPrice))
	assert.True(t, d("2").Equal(opp.PriceDiffPct))
	assert.Equal(t, now, opp.Timestamp)
	assert.NotEmpty(t, opp.ID)
}

func TestScore_BuySideIsCheaper(t *testing.T) {
	tables := []models.ExchangeTable{
		table("binance", models.PriceTable{
			"ETH": {"USDT": p("2510"), "BTC": p("0.050")},
			"SOL": {"USDT": p("150.5")},
		}),
		table("kraken", models.PriceTable{
			"ETH": {"USDT": p("2500"), "BTC": p("0.051")},
			"SOL": {"USDT": p("151")},
		}),
	}
	markets := []string{"USDT", "BTC"}
	opps := Score(Align(tables, []string{"ETH", "SOL"}, markets), exchanges, markets, time.Now())

	require.Len(t, opps, 3)
	for _, opp := range opps {
		assert.True(t, opp.BuyPrice.LessThanOrEqual(opp.SellPrice), "%s/%s", opp.Symbol, opp.Market)
		want := opp.SellPrice.Sub(opp.BuyPrice).Div(opp.BuyPrice).Mul(hundred)
		assert.True(t, want.Equal(opp.PriceDiffPct))
		assert.NotEqual(t, opp.Symbol, opp.Market)
	}
	assert.Equal(t, "kraken", opps[0].BuyExchange)
	assert.Equal(t, "binance", opps[1].BuyExchange)
}

func TestScore_SkipsTiesMissingAndNonPositive(t *testing.T) {
	tables := []models.ExchangeTable{
		table("binance", models.PriceTable{
			"BTC":  {"USDT": p("100")},
			"ETH":  {"USDT": models.NoPrice},
			"DOGE": {"USDT": p("0")},
			"ADA":  {"USDT": p("-1")},
		}),
		table("kraken", models.PriceTable{
			"BTC":  {"USDT": p("100")},
			"ETH":  {"USDT": p("10")},
			"DOGE": {"USDT": p("0.1")},
			"ADA":  {"USDT": p("0.5")},
		}),
	}

	opps := Score(Align(tables, []string{"BTC", "ETH", "DOGE", "ADA"}, []string{"USDT"}), exchanges, []string{"USDT"}, time.Now())
	assert.Empty(t, opps)
}

func TestScore_MoreThanTwoExchanges(t *testing.T) {
	tables := []models.ExchangeTable{
		table("binance", models.PriceTable{"BTC": {"USDT": p("100")}}),
		table("kraken", models.PriceTable{"BTC": {"USDT": p("101")}}),
		table("bybit", models.PriceTable{"BTC": {"USDT": p("103")}}),
	}
	names := []string{"binance", "kraken", "bybit"}

	opps := Score(Align(tables, []string{"BTC"}, []string{"USDT"}), names, []string{"USDT"}, time.Now())
	require.Len(t, opps, 3)

	pairs := make(map[string]bool)
	for _, opp := range opps {
		pairs[opp.BuyExchange+">"+opp.SellExchange] = true
	}
	assert.True(t, pairs["binance>kraken"])
	assert.True(t, pairs["binance>bybit"])
	assert.True(t, pairs["kraken>bybit"])
}
