package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/cryptogap-go/internal/llm"
	"github.com/irfndi/cryptogap-go/internal/models"
)

// Analyst writes plain-language commentary on market data.
type Analyst interface {
	Enabled() bool
	AnalyzeOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) (string, error)
	AnalyzeLowPriceGainer(ctx context.Context, g *models.LowPriceGainer) (string, error)
	AnalyzeCoin(ctx context.Context, symbol string, details []models.CoinDetail) (string, error)
}

// AnalysisResponse carries one generated analysis.
type AnalysisResponse struct {
	Subject   string      `json:"subject"`
	Analysis  string      `json:"analysis"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type AnalysisHandler struct {
	analyst    Analyst
	calculator OpportunityLister
	coins      CoinDetailSource
}

func NewAnalysisHandler(analyst Analyst, calculator OpportunityLister, coins CoinDetailSource) *AnalysisHandler {
	return &AnalysisHandler{analyst: analyst, calculator: calculator, coins: coins}
}

// requireAnalyst rejects the request before any market data is fetched.
func (h *AnalysisHandler) requireAnalyst(c *gin.Context) bool {
	if h.analyst == nil || !h.analyst.Enabled() {
		writeError(c, llm.ErrNotConfigured)
		return false
	}
	return true
}

// AnalyzeOpportunity comments on the current top opportunity, falling back
// to the last one seen when this cycle found nothing.
func (h *AnalysisHandler) AnalyzeOpportunity(c *gin.Context) {
	if !h.requireAnalyst(c) {
		return
	}
	ctx := c.Request.Context()

	var top *models.ArbitrageOpportunity
	if ranked := h.calculator.ListOpportunities(ctx); len(ranked) > 0 {
		top = &ranked[0]
	} else if last, ok := h.calculator.LastOpportunity(); ok {
		top = &last
	}

	text, err := h.analyst.AnalyzeOpportunity(ctx, top)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := AnalysisResponse{Subject: "arbitrage_opportunity", Analysis: text, Timestamp: time.Now().UTC()}
	if top != nil {
		resp.Data = top
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalysisHandler) AnalyzeLowPriceGainer(c *gin.Context) {
	if !h.requireAnalyst(c) {
		return
	}
	ctx := c.Request.Context()
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	var gainer *models.LowPriceGainer
	for _, g := range h.calculator.ListLowPriceGainers(ctx) {
		if g.Symbol == symbol {
			gainer = &g
			break
		}
	}
	if gainer == nil {
		abortWithError(c, http.StatusNotFound, fmt.Sprintf("No low-price gainer found for %s", symbol))
		return
	}

	text, err := h.analyst.AnalyzeLowPriceGainer(ctx, gainer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnalysisResponse{
		Subject:   "low_price_gainer",
		Analysis:  text,
		Data:      gainer,
		Timestamp: time.Now().UTC(),
	})
}

func (h *AnalysisHandler) AnalyzeCoin(c *gin.Context) {
	if !h.requireAnalyst(c) {
		return
	}
	ctx := c.Request.Context()

	details, err := h.coins.GetCoinDetails(ctx, c.Param("symbol"), c.Query("market"))
	if err != nil {
		writeError(c, err)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	text, err := h.analyst.AnalyzeCoin(ctx, symbol, details)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnalysisResponse{
		Subject:   "coin",
		Analysis:  text,
		Data:      details,
		Timestamp: time.Now().UTC(),
	})
}
