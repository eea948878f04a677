// Package receitaws is a client for the public ReceitaWS company detail
// API. The free tier allows 3 requests per minute, so the client paces
// itself and retries a throttled request exactly once.
package receitaws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/finclip/prospector-cli/internal/resilience"
)

const defaultBaseURL = "https://receitaws.com.br/v1"

// Officer is one entry from the company's officer board (QSA).
type Officer struct {
	Name string `json:"nome"`
	Role string `json:"qual"`
}

// CompanyDetails is the subset of the API response the pipeline consumes.
type CompanyDetails struct {
	Status    string    `json:"status"`
	Name      string    `json:"nome"`
	TradeName string    `json:"fantasia"`
	Phone     string    `json:"telefone"`
	Email     string    `json:"email"`
	Capital   string    `json:"capital_social"`
	Officers  []Officer `json:"qsa"`
}

// Client looks up company details by full tax id.
type Client interface {
	// Lookup returns nil details (without error) when the id is unknown to
	// the API or the API is unavailable after retry.
	Lookup(ctx context.Context, fullID string) (*CompanyDetails, error)
}

type httpClient struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	interval time.Duration
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.client = hc }
}

// WithInterval sets the pacing between requests, which also becomes the
// wait before the single retry of a throttled request. Default 20s, the
// free-tier request budget.
func WithInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.interval = d
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient builds a ReceitaWS client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		interval: 20 * time.Second,
	}
	c.limiter = rate.NewLimiter(rate.Every(c.interval), 1)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, fullID string) (*CompanyDetails, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "receitaws: rate limit wait")
	}

	details, err := resilience.DoVal(ctx, resilience.RetryConfig{
		MaxAttempts: 2,
		Backoff:     c.interval,
		Multiplier:  1,
		OnRetry:     resilience.RetryLogger("receitaws", "lookup"),
	}, func(ctx context.Context) (*CompanyDetails, error) {
		return c.fetch(ctx, fullID)
	})
	if err != nil {
		if resilience.IsTransient(err) {
			zap.L().Warn("receitaws: lookup still throttled after retry, skipping",
				zap.String("full_id", fullID),
			)
			return nil, nil
		}
		return nil, err
	}
	return details, nil
}

func (c *httpClient) fetch(ctx context.Context, fullID string) (*CompanyDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cnpj/"+fullID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "receitaws: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "receitaws: do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.NewTransientError(
			eris.Errorf("receitaws: throttled for %s", fullID),
			resp.StatusCode,
		)
	}
	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("receitaws: unexpected status, treating as no details",
			zap.String("full_id", fullID),
			zap.Int("status", resp.StatusCode),
		)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "receitaws: read response")
	}

	var details CompanyDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, eris.Wrap(err, "receitaws: decode response")
	}
	if details.Status != "OK" {
		zap.L().Debug("receitaws: id not found",
			zap.String("full_id", fullID),
			zap.String("status", details.Status),
		)
		return nil, nil
	}
	return &details, nil
}
