package api

import (
	"github.com/gin-gonic/gin"

	"github.com/irfndi/cryptogap-go/internal/api/handlers"
	"github.com/irfndi/cryptogap-go/internal/logging"
	"github.com/irfndi/cryptogap-go/internal/middleware"
)

// Calculator is the arbitrage facade behind the HTTP API.
type Calculator interface {
	handlers.OpportunityLister
	handlers.LivePriceSource
	handlers.TradeSimulator
}

// Dependencies wires the handlers. Analyst may be nil.
type Dependencies struct {
	Calculator Calculator
	Coins      handlers.CoinDetailSource
	Analyst    handlers.Analyst
	Health     handlers.HealthDeps
}

// NewRouter creates a gin engine with the shared middleware chain.
func NewRouter(serviceName string, allowedOrigins []string, logger *logging.StandardLogger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(serviceName),
		middleware.RequestLogger(logger),
		middleware.CORS(allowedOrigins),
	)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Health)
	arbitrageHandler := handlers.NewArbitrageHandler(deps.Calculator)
	marketHandler := handlers.NewMarketHandler(deps.Calculator, deps.Coins)
	tradeHandler := handlers.NewTradeHandler(deps.Calculator)
	analysisHandler := handlers.NewAnalysisHandler(deps.Analyst, deps.Calculator, deps.Coins)

	router.GET("/health", healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		arbitrage := v1.Group("/arbitrage")
		{
			arbitrage.GET("/opportunities", arbitrageHandler.GetArbitrageOpportunities)
			arbitrage.GET("/last", arbitrageHandler.GetLastOpportunity)
			arbitrage.GET("/low-price-gainers", arbitrageHandler.GetLowPriceGainers)
		}

		market := v1.Group("/market")
		{
			market.GET("/prices", marketHandler.GetMarketPrices)
			market.GET("/coins/:symbol", marketHandler.GetCoinDetails)
		}

		trade := v1.Group("/trade")
		{
			trade.POST("/simulate", tradeHandler.SimulateTrade)
		}

		analysis := v1.Group("/analysis")
		{
			analysis.GET("/opportunity", analysisHandler.AnalyzeOpportunity)
			analysis.GET("/low-price/:symbol", analysisHandler.AnalyzeLowPriceGainer)
			analysis.GET("/coin/:symbol", analysisHandler.AnalyzeCoin)
		}
	}
}
