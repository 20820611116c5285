// Package llm asks a Groq-hosted chat model for plain-language commentary on
// opportunities, low-price gaps and single coins.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/exchange"
	"github.com/irfndi/cryptogap-go/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("llm analyzer not configured")

const (
	coinAnalysisMaxTokens = 800
	maxTradesInPrompt     = 5
	maxLevelsInPrompt     = 3
)

// Analyzer calls an OpenAI-compatible chat completions endpoint.
type Analyzer struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewAnalyzer creates an analyzer from cfg. It is usable without an API key
// but every call then returns ErrNotConfigured.
func NewAnalyzer(cfg config.LLMConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Analyzer{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      logger.With("component", "llm_analyzer"),
		tracer:      otel.Tracer("github.com/irfndi/cryptogap-go/internal/llm"),
	}
}

// Enabled reports whether an API key is configured.
func (a *Analyzer) Enabled() bool {
	return a.apiKey != ""
}

// AnalyzeOpportunity explains a single arbitrage opportunity.
func (a *Analyzer) AnalyzeOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) (string, error) {
	if opp == nil {
		return "No arbitrage opportunity data provided.", nil
	}

	prompt := fmt.Sprintf(`Analyze the following cryptocurrency arbitrage opportunity:

Symbol: %s
Market: %s
Buy Exchange: %s
Sell Exchange: %s
Buy Price: %s
Sell Price: %s
Price Difference: %s%%

Please provide:
1. A brief explanation of why this arbitrage opportunity might exist
2. Potential risks associated with this trade, including fees and transfer times
3. Recommendations on timing and execution
4. Any other relevant insights for a trader

Keep your response concise and trader-friendly.`,
		opp.Symbol, opp.Market, opp.BuyExchange, opp.SellExchange,
		opp.BuyPrice.String(), opp.SellPrice.String(), opp.PriceDiffPct.StringFixed(2))

	return a.complete(ctx, "opportunity",
		"You are a cryptocurrency trading expert specializing in arbitrage opportunities. Provide concise, practical insights for traders.",
		prompt, a.maxTokens)
}

// AnalyzeLowPriceGainer explains a price gap on a sub-threshold coin.
func (a *Analyzer) AnalyzeLowPriceGainer(ctx context.Context, g *models.LowPriceGainer) (string, error) {
	if g == nil {
		return "No low-price gainer data provided.", nil
	}

	prompt := fmt.Sprintf(`Analyze the following low-price cryptocurrency with price discrepancy:

Symbol: %s
%s Price: $%s
%s Price: $%s
Price Difference: %s%%
Average Price: $%s

Please provide:
1. Potential reasons for this price discrepancy in a low-priced coin
2. Opportunities this might present for traders
3. Risks associated with trading low-priced cryptocurrencies
4. A brief recommendation on whether this is worth investigating further

Keep your response concise and trader-friendly.`,
		g.Symbol,
		exchange.DisplayName(g.ExchangeA), g.PriceA.StringFixed(6),
		exchange.DisplayName(g.ExchangeB), g.PriceB.StringFixed(6),
		g.PriceDiffPct.StringFixed(2), g.AvgPrice.StringFixed(6))

	return a.complete(ctx, "low_price_gainer",
		"You are a cryptocurrency trading expert specializing in market inefficiencies and low-cap coins. Provide concise, practical insights for traders.",
		prompt, a.maxTokens)
}

// AnalyzeCoin writes a market overview of symbol from per-exchange detail.
func (a *Analyzer) AnalyzeCoin(ctx context.Context, symbol string, details []models.CoinDetail) (string, error) {
	usable := make([]models.CoinDetail, 0, len(details))
	for _, d := range details {
		if d.Error == "" && d.Stats != nil {
			usable = append(usable, d)
		}
	}
	if len(usable) == 0 {
		return fmt.Sprintf("No data available for %s.", symbol), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a detailed analysis for %s based on the following data:\n", symbol)
	for _, d := range usable {
		writeCoinSection(&b, d)
	}
	fmt.Fprintf(&b, `
Please provide:
1. A summary of the current market conditions for %[1]s
2. Price trend analysis based on the 24-hour statistics
3. Trading volume analysis and what it indicates
4. Order book analysis (liquidity, buy/sell pressure)
5. Short-term price outlook (next 24-48 hours)
6. Potential trading strategies based on this data

Keep your response comprehensive but trader-friendly.`, symbol)

	return a.complete(ctx, "coin",
		fmt.Sprintf("You are a cryptocurrency analyst specializing in %s trading. Provide detailed, data-driven analysis for traders.", symbol),
		b.String(), coinAnalysisMaxTokens)
}

func writeCoinSection(b *strings.Builder, d models.CoinDetail) {
	fmt.Fprintf(b, "\n== %s (%s) ==\n24-Hour Statistics:\n", exchange.DisplayName(d.Exchange), d.TradingPair)
	stats, _ := json.MarshalIndent(d.Stats, "", "  ")
	b.Write(stats)
	b.WriteString("\n\nRecent Trades:\n")
	for i, t := range d.RecentTrades {
		if i == maxTradesInPrompt {
			break
		}
		fmt.Fprintf(b, "- %s %s at %s\n", titleSide(t.Side), t.Amount, t.Price)
	}
	b.WriteString("\nOrder Book:\nTop 3 Bids:\n")
	writeLevels(b, d.Bids)
	b.WriteString("Top 3 Asks:\n")
	writeLevels(b, d.Asks)
}

func writeLevels(b *strings.Builder, levels []models.BookLevel) {
	for i, l := range levels {
		if i == maxLevelsInPrompt {
			break
		}
		fmt.Fprintf(b, "- Price: %s, Quantity: %s\n", l.Price, l.Amount)
	}
}

func titleSide(side string) string {
	switch strings.ToLower(side) {
	case "buy":
		return "Buy"
	case "sell":
		return "Sell"
	default:
		return "Trade"
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Analyzer) complete(ctx context.Context, kind, system, prompt string, maxTokens int) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}

	ctx, span := a.tracer.Start(ctx, "llm.chat_completion", trace.WithAttributes(
		attribute.String("llm.kind", kind),
		attribute.String("llm.model", a.model),
	))
	defer span.End()

	text, err := a.chat(ctx, chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: a.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("LLM analysis failed", "kind", kind, "error", err)
		return "", err
	}
	return text, nil
}

func (a *Analyzer) chat(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call LLM API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read LLM response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("LLM API error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("LLM API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode LLM response: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("LLM response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
