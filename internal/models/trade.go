package models

import (
	"github.com/shopspring/decimal"
)

// TradeSimulationRequest describes a round trip to simulate.
type TradeSimulationRequest struct {
	Symbol       string          `json:"symbol"`
	Market       string          `json:"market"`
	Amount       decimal.Decimal `json:"amount"`
	BuyExchange  string          `json:"buy_exchange"`
	SellExchange string          `json:"sell_exchange"`
}

// TradeSimulation is the fee-free outcome of buying on one exchange and
// selling the whole position on another.
type TradeSimulation struct {
	Symbol            string          `json:"symbol"`
	Market            string          `json:"market"`
	InitialInvestment decimal.Decimal `json:"initial_investment"`
	BuyExchange       string          `json:"buy_exchange"`
	BuyPrice          decimal.Decimal `json:"buy_price"`
	CryptoAmount      decimal.Decimal `json:"crypto_amount"`
	SellExchange      string          `json:"sell_exchange"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	SellAmount        decimal.Decimal `json:"sell_amount"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
	Profit            decimal.Decimal `json:"profit"`
	ProfitPercentage  decimal.Decimal `json:"profit_percentage"`
	Profitable        bool            `json:"profitable"`
}
