package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/cryptogap-go/internal/models"
)

// TradeSimulator prices and simulates a round trip.
type TradeSimulator interface {
	SimulateTrade(ctx context.Context, req models.TradeSimulationRequest) (*models.TradeSimulation, error)
}

type TradeHandler struct {
	simulator TradeSimulator
}

func NewTradeHandler(simulator TradeSimulator) *TradeHandler {
	return &TradeHandler{simulator: simulator}
}

// SimulateTrade answers 400 for invalid requests and 404 when either
// exchange has no price for the pair.
func (h *TradeHandler) SimulateTrade(c *gin.Context) {
	var req models.TradeSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.simulator.SimulateTrade(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
