package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/cryptogap-go/internal/arbitrage"
	"github.com/irfndi/cryptogap-go/internal/llm"
	"github.com/irfndi/cryptogap-go/internal/middleware"
	"github.com/irfndi/cryptogap-go/internal/utils"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		RequestID: middleware.GetRequestID(c),
	})
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// reported as 500 without their text.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, arbitrage.ErrInvalidTradeRequest), utils.IsValidationError(err):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, arbitrage.ErrPriceUnavailable):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, llm.ErrNotConfigured):
		abortWithError(c, http.StatusServiceUnavailable, "AI analysis is not configured")
	default:
		middleware.RecordError(c, err, "request failed")
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
