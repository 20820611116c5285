package arbitrage

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/irfndi/cryptogap-go/internal/utils"
	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable means a symbol/market has no usable price on an
// exchange the request named.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrInvalidTradeRequest wraps every request validation failure. The
// underlying *utils.ValidationError names the offending field.
var ErrInvalidTradeRequest = errors.New("invalid trade request")

// NormalizeTradeRequest upper-cases codes and lower-cases exchange names.
func NormalizeTradeRequest(req models.TradeSimulationRequest) models.TradeSimulationRequest {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Market = strings.ToUpper(strings.TrimSpace(req.Market))
	req.BuyExchange = strings.ToLower(strings.TrimSpace(req.BuyExchange))
	req.SellExchange = strings.ToLower(strings.TrimSpace(req.SellExchange))
	return req
}

// ValidateTradeRequest checks everything that does not need prices.
func ValidateTradeRequest(req models.TradeSimulationRequest, exchanges []string) error {
	if err := validateTradeRequest(req, exchanges); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTradeRequest, err)
	}
	return nil
}

func validateTradeRequest(req models.TradeSimulationRequest, exchanges []string) error {
	if req.Symbol == "" {
		return utils.NewFieldError("symbol", "is required")
	}
	if req.Market == "" {
		return utils.NewFieldError("market", "is required")
	}
	if !req.Amount.IsPositive() {
		return utils.NewFieldError("amount", "must be greater than zero, got %s", req.Amount)
	}
	if !slices.Contains(exchanges, req.BuyExchange) {
		return utils.NewFieldError("buy_exchange", "unknown exchange %q", req.BuyExchange)
	}
	if !slices.Contains(exchanges, req.SellExchange) {
		return utils.NewFieldError("sell_exchange", "unknown exchange %q", req.SellExchange)
	}
	if req.BuyExchange == req.SellExchange {
		return utils.NewFieldError("sell_exchange", "must differ from buy_exchange")
	}
	return nil
}

// Simulate prices the request from freshly aligned rows.
func Simulate(req models.TradeSimulationRequest, rows []models.AlignedRow, exchanges []string) (*models.TradeSimulation, error) {
	if err := ValidateTradeRequest(req, exchanges); err != nil {
		return nil, err
	}

	var row *models.AlignedRow
	for i := range rows {
		if rows[i].Symbol == req.Symbol {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s not quoted on both %s and %s", ErrPriceUnavailable, req.Symbol, req.BuyExchange, req.SellExchange)
	}

	buyPrice, ok := row.Lookup(req.Market, req.BuyExchange)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s on %s", ErrPriceUnavailable, req.Symbol, req.Market, req.BuyExchange)
	}
	sellPrice, ok := row.Lookup(req.Market, req.SellExchange)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s on %s", ErrPriceUnavailable, req.Symbol, req.Market, req.SellExchange)
	}

	sim := RoundTrip(req, buyPrice, sellPrice)
	return &sim, nil
}

// RoundTrip buys req.Amount worth at buyPrice and sells everything at
// sellPrice. Fees and slippage are not applied. The sell side is computed as
// amount*sell/buy so equal prices give exactly zero profit; CryptoAmount is
// reported only.
func RoundTrip(req models.TradeSimulationRequest, buyPrice, sellPrice decimal.Decimal) models.TradeSimulation {
	cryptoAmount := req.Amount.Div(buyPrice)
	sellAmount := req.Amount.Mul(sellPrice).Div(buyPrice)
	finalAmount := sellAmount
	profit := finalAmount.Sub(req.Amount)

	return models.TradeSimulation{
		Symbol:            req.Symbol,
		Market:            req.Market,
		InitialInvestment: req.Amount,
		BuyExchange:       req.BuyExchange,
		BuyPrice:          buyPrice,
		CryptoAmount:      cryptoAmount,
		SellExchange:      req.SellExchange,
		SellPrice:         sellPrice,
		SellAmount:        sellAmount,
		FinalAmount:       finalAmount,
		Profit:            profit,
		ProfitPercentage:  profit.Div(req.Amount).Mul(hundred),
		Profitable:        profit.IsPositive(),
	}
}
