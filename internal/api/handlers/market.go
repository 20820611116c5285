package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/cryptogap-go/internal/middleware"
	"github.com/irfndi/cryptogap-go/internal/models"
)

// LivePriceSource produces aligned prices across every exchange.
type LivePriceSource interface {
	Exchanges() []string
	LivePrices(ctx context.Context) []models.LivePriceRow
}

// CoinDetailSource gathers per-exchange market detail for one pair.
type CoinDetailSource interface {
	GetCoinDetails(ctx context.Context, symbol, market string) ([]models.CoinDetail, error)
}

// MarketPricesResponse lists the symbols quoted on every exchange.
type MarketPricesResponse struct {
	Exchanges []string              `json:"exchanges"`
	Prices    []models.LivePriceRow `json:"prices"`
	Count     int                   `json:"count"`
	Timestamp time.Time             `json:"timestamp"`
}

// CoinDetailsResponse is the per-exchange view of one pair.
type CoinDetailsResponse struct {
	Symbol    string              `json:"symbol"`
	Market    string              `json:"market"`
	Exchanges []models.CoinDetail `json:"exchanges"`
	Timestamp time.Time           `json:"timestamp"`
}

type MarketHandler struct {
	prices LivePriceSource
	coins  CoinDetailSource
}

func NewMarketHandler(prices LivePriceSource, coins CoinDetailSource) *MarketHandler {
	return &MarketHandler{prices: prices, coins: coins}
}

func (h *MarketHandler) GetMarketPrices(c *gin.Context) {
	rows := h.prices.LivePrices(c.Request.Context())
	c.JSON(http.StatusOK, MarketPricesResponse{
		Exchanges: h.prices.Exchanges(),
		Prices:    rows,
		Count:     len(rows),
		Timestamp: time.Now().UTC(),
	})
}

// GetCoinDetails returns ticker stats, order book and recent trades of one
// symbol on every exchange. The market defaults to the reference market.
func (h *MarketHandler) GetCoinDetails(c *gin.Context) {
	symbol := c.Param("symbol")
	middleware.AddSpanAttribute(c, "symbol", symbol)

	details, err := h.coins.GetCoinDetails(c.Request.Context(), symbol, c.Query("market"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := CoinDetailsResponse{Exchanges: details, Timestamp: time.Now().UTC()}
	if len(details) > 0 {
		resp.Symbol = details[0].Symbol
		resp.Market = details[0].Market
	}
	c.JSON(http.StatusOK, resp)
}
