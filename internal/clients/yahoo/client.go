// Package yahoo provides a client for the Yahoo Finance spark API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com/v7/finance"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the QuoteClient interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client. No API key is required for
// the spark endpoint.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Yahoo rejects requests without a browser-ish user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; maple/1.0)")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// sparkSeries is one symbol's entry in a spark response, keyed by symbol.
type sparkSeries struct {
	Close    []float64 `json:"close"`
	Currency string    `json:"currency"`
}

// GetCurrentPrice fetches the latest close for a symbol. Finnhub-style
// exchange suffixes ("TD:TO") are converted to Yahoo's dot form first.
// A symbol with no close data yields a zero-price quote.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (*models.Quote, error) {
	yahooSymbol := models.YahooSymbol(symbol)

	params := url.Values{}
	params.Set("symbols", yahooSymbol)
	params.Set("interval", "1d")

	var resp map[string]sparkSeries
	if err := c.get(ctx, "/spark", params, &resp); err != nil {
		return nil, err
	}

	quote := &models.Quote{Symbol: yahooSymbol}
	if series, ok := resp[yahooSymbol]; ok && len(series.Close) > 0 {
		quote.Price = series.Close[len(series.Close)-1]
		quote.Currency = series.Currency
	}

	c.logger.Debug().Str("symbol", yahooSymbol).Float64("price", quote.Price).Msg("Yahoo spark quote")

	return quote, nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
