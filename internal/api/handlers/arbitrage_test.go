package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/cryptogap-go/internal/models"
)

func arbitrageRouter(h *ArbitrageHandler) *gin.Engine {
	router := testRouter()
	router.GET("/opportunities", h.GetArbitrageOpportunities)
	router.GET("/last", h.GetLastOpportunity)
	router.GET("/low-price-gainers", h.GetLowPriceGainers)
	return router
}

func TestArbitrageHandler_GetArbitrageOpportunities(t *testing.T) {
	h := NewArbitrageHandler(newCalculator())
	router := testRouter()
	router.GET("/opportunities", h.GetArbitrageOpportunities)

	w := perform(t, router, http.MethodGet, "/opportunities", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ArbitrageOpportunitiesResponse
	decode(t, w, &resp)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "DOGE", resp.Opportunities[0].Symbol)
	assert.Equal(t, "binance", resp.Opportunities[0].BuyExchange)
	assert.Equal(t, "kraken", resp.Opportunities[0].SellExchange)
	assert.True(t, d("10").Equal(resp.Opportunities[0].PriceDiffPct))
	assert.Equal(t, "BTC", resp.Opportunities[1].Symbol)
	assert.True(t, d("1").Equal(resp.Opportunities[1].PriceDiffPct))
}

func TestArbitrageHandler_Limit(t *testing.T) {
	h := NewArbitrageHandler(newCalculator())
	router := testRouter()
	router.GET("/opportunities", h.GetArbitrageOpportunities)

	w := perform(t, router, http.MethodGet, "/opportunities?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ArbitrageOpportunitiesResponse
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "DOGE", resp.Opportunities[0].Symbol)

	for _, bad := range []string{"0", "-3", "ten"} {
		w := perform(t, router, http.MethodGet, "/opportunities?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestArbitrageHandler_EmptyCycle(t *testing.T) {
	h := NewArbitrageHandler(failingCalculator())
	router := testRouter()
	router.GET("/opportunities", h.GetArbitrageOpportunities)

	w := perform(t, router, http.MethodGet, "/opportunities", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, extractField(t, w.Body.Bytes(), "opportunities"))
}

func TestArbitrageHandler_GetLastOpportunity(t *testing.T) {
	calc := newCalculator()
	h := NewArbitrageHandler(calc)
	router := arbitrageRouter(h)

	w := perform(t, router, http.MethodGet, "/last", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errResp ErrorResponse
	decode(t, w, &errResp)
	assert.NotEmpty(t, errResp.Error)

	perform(t, router, http.MethodGet, "/opportunities", "")

	w = perform(t, router, http.MethodGet, "/last", "")
	require.Equal(t, http.StatusOK, w.Code)
	var opp models.ArbitrageOpportunity
	decode(t, w, &opp)
	assert.Equal(t, "DOGE", opp.Symbol)
}

func TestArbitrageHandler_GetLowPriceGainers(t *testing.T) {
	router := arbitrageRouter(NewArbitrageHandler(newCalculator()))

	w := perform(t, router, http.MethodGet, "/low-price-gainers", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LowPriceGainersResponse
	decode(t, w, &resp)
	assert.Equal(t, "USDT", resp.Market)
	require.Equal(t, 1, resp.Count)
	g := resp.Gainers[0]
	assert.Equal(t, "DOGE", g.Symbol)
	assert.True(t, d("10").Equal(g.PriceDiffPct))
	assert.True(t, d("0.105").Equal(g.AvgPrice))
}
