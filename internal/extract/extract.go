// Package extract pulls registered tax ids out of company websites and
// web-search result pages.
package extract

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/finclip/prospector-cli/internal/cnpj"
)

var (
	// A labeled id ("CNPJ: 11.222.333/0001-81") is trusted over a bare one.
	labeledPattern = regexp.MustCompile(`(?:CNPJ|cnpj)[:\s]*(\d{2}\.?\d{3}\.?\d{3}/?0001-?\d{2})`)
	barePattern    = regexp.MustCompile(`\d{2}\.?\d{3}\.?\d{3}/?0001-?\d{2}`)
)

// Extractor fetches pages and scans them for a valid headquarters tax id.
// Network and parse failures are soft: they log and report no id, since an
// unreachable website is an everyday condition for these leads.
type Extractor struct {
	client        *http.Client
	userAgent     string
	searchBaseURL string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) { e.userAgent = ua }
}

// WithSearchBaseURL overrides the web-search endpoint.
func WithSearchBaseURL(u string) Option {
	return func(e *Extractor) { e.searchBaseURL = u }
}

// WithTimeout sets the per-request timeout (default 10s).
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.client.Timeout = d }
}

// New builds an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		client:        &http.Client{Timeout: 10 * time.Second},
		userAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		searchBaseURL: "https://www.google.com/search",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromWebsite fetches a company website and scans it for the company's tax
// id. Returns "" when the site is unreachable or carries no valid id.
func (e *Extractor) FromWebsite(ctx context.Context, website string) string {
	if website == "" {
		return ""
	}
	body := e.fetch(ctx, website)
	if body == "" {
		return ""
	}
	return FindTaxID(body)
}

// FromSearch queries the web-search endpoint with "<name> <city> CNPJ" and
// scans the result page. Same soft-failure contract as FromWebsite.
func (e *Extractor) FromSearch(ctx context.Context, name, city string) string {
	query := name + " " + city + " CNPJ"
	u := e.searchBaseURL + "?q=" + url.QueryEscape(query)
	body := e.fetch(ctx, u)
	if body == "" {
		return ""
	}
	return FindTaxID(body)
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		zap.L().Debug("extract: bad url", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		zap.L().Debug("extract: fetch failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("extract: non-200 response",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		zap.L().Debug("extract: read body failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	return string(body)
}

// FindTaxID scans text for a headquarters tax id, preferring explicitly
// labeled occurrences, and returns it as 14 digits. Candidates that fail
// the check-digit validation are discarded, so a stray number that merely
// looks like an id cannot leak through.
func FindTaxID(text string) string {
	for _, m := range labeledPattern.FindAllStringSubmatch(text, -1) {
		if id := cnpj.OnlyDigits(m[1]); cnpj.Valid(id) {
			return id
		}
	}
	for _, m := range barePattern.FindAllString(text, -1) {
		if id := cnpj.OnlyDigits(m); cnpj.Valid(id) {
			return id
		}
	}
	return ""
}
