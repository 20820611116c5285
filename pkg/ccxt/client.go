package ccxt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/shopspring/decimal"
)

// Client talks to the CCXT sidecar service over HTTP.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	timeout    time.Duration
}

// NewClient creates a new CCXT client instance
func NewClient(cfg *config.CCXTConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.ServiceURL, "/"),
		timeout: timeout,
	}
}

// HealthCheck checks if the CCXT service is healthy
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var response HealthResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/health", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetTicker retrieves the ticker of one pair on one exchange.
func (c *Client) GetTicker(ctx context.Context, exchange, symbol string) (*TickerResponse, error) {
	var response TickerResponse
	if err := c.makeRequest(ctx, http.MethodGet, pairPath("/api/ticker", exchange, symbol), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetTickers retrieves multiple tickers in a single request
func (c *Client) GetTickers(ctx context.Context, req *TickersRequest) (*TickersResponse, error) {
	var response TickersResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/api/tickers", req, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetOrderBook retrieves order book data for a specific exchange and symbol
func (c *Client) GetOrderBook(ctx context.Context, exchange, symbol string, limit int) (*OrderBookResponse, error) {
	path := pairPath("/api/orderbook", exchange, symbol)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var response OrderBookResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetTrades retrieves recent trades for a specific exchange and symbol
func (c *Client) GetTrades(ctx context.Context, exchange, symbol string, limit int) (*TradesResponse, error) {
	path := pairPath("/api/trades", exchange, symbol)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var response TradesResponse
	if err := c.makeRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// FetchLastPrices asks for all pairs in one batch. Tickers with a missing
// or non-positive last price are left out of the result.
func (c *Client) FetchLastPrices(ctx context.Context, exchange string, pairs []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(pairs))
	if len(pairs) == 0 {
		return prices, nil
	}

	resp, err := c.GetTickers(ctx, &TickersRequest{Symbols: pairs, Exchanges: []string{exchange}})
	if err != nil {
		return nil, err
	}

	for _, td := range resp.Tickers {
		if td.Exchange != "" && td.Exchange != exchange {
			continue
		}
		last := td.Ticker.Last
		if !last.Valid || !last.Decimal.IsPositive() {
			continue
		}
		prices[td.Ticker.Symbol] = last.Decimal
	}
	return prices, nil
}

// pairPath escapes the slash inside pair names such as "BTC/USDT".
func pairPath(prefix, exchange, symbol string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, url.PathEscape(exchange), url.PathEscape(symbol))
}

// makeRequest is a helper method to make HTTP requests to the CCXT service
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CryptoGap-Go/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			return fmt.Errorf("CCXT service error (%d): %s", resp.StatusCode, errorResp.Error)
		}
		return fmt.Errorf("CCXT service error (%d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// Close is a no-op; the underlying http.Client holds no resources.
func (c *Client) Close() error {
	return nil
}
