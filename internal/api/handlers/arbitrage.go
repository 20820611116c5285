package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/cryptogap-go/internal/models"
)

// OpportunityLister is what the arbitrage endpoints need from the calculator.
type OpportunityLister interface {
	ListOpportunities(ctx context.Context) []models.ArbitrageOpportunity
	LastOpportunity() (models.ArbitrageOpportunity, bool)
	ListLowPriceGainers(ctx context.Context) []models.LowPriceGainer
	ReferenceMarket() string
}

type ArbitrageHandler struct {
	calculator OpportunityLister
}

func NewArbitrageHandler(calculator OpportunityLister) *ArbitrageHandler {
	return &ArbitrageHandler{calculator: calculator}
}

// GetArbitrageOpportunities runs a fresh cycle and returns the ranked list,
// truncated to the optional limit.
func (h *ArbitrageHandler) GetArbitrageOpportunities(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	opportunities := h.calculator.ListOpportunities(c.Request.Context())
	if limit > 0 && len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}

	c.JSON(http.StatusOK, models.ArbitrageOpportunitiesResponse{
		Opportunities: opportunities,
		Count:         len(opportunities),
		Timestamp:     time.Now().UTC(),
	})
}

// GetLastOpportunity returns the top opportunity of the latest nonempty cycle.
func (h *ArbitrageHandler) GetLastOpportunity(c *gin.Context) {
	opp, ok := h.calculator.LastOpportunity()
	if !ok {
		abortWithError(c, http.StatusNotFound, "No arbitrage opportunity has been found yet")
		return
	}
	c.JSON(http.StatusOK, opp)
}

func (h *ArbitrageHandler) GetLowPriceGainers(c *gin.Context) {
	gainers := h.calculator.ListLowPriceGainers(c.Request.Context())
	c.JSON(http.StatusOK, models.LowPriceGainersResponse{
		Market:    h.calculator.ReferenceMarket(),
		Gainers:   gainers,
		Count:     len(gainers),
		Timestamp: time.Now().UTC(),
	})
}
