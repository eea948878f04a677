// Package places finds lead candidates through the Google Places Text
// Search API, biased to Brazilian results.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// Fields requested from the API. Anything not listed here comes back
	// zero-valued.
	fieldMask = "places.id,places.displayName,places.formattedAddress," +
		"places.nationalPhoneNumber,places.websiteUri,places.rating,places.userRatingCount"
)

// Business is one search result, flattened to the fields the lead intake
// cares about.
type Business struct {
	PlaceID     string
	Name        string
	Address     string
	Phone       string
	Website     string
	Rating      float64
	RatingCount int
}

// Client performs business searches.
type Client interface {
	SearchBusinesses(ctx context.Context, query string) ([]Business, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Wire types, kept private so callers only see Business.
type searchRequest struct {
	TextQuery    string `json:"textQuery"`
	LanguageCode string `json:"languageCode"`
	RegionCode   string `json:"regionCode"`
}

type searchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress    string  `json:"formattedAddress"`
		NationalPhoneNumber string  `json:"nationalPhoneNumber"`
		WebsiteURI          string  `json:"websiteUri"`
		Rating              float64 `json:"rating"`
		UserRatingCount     int     `json:"userRatingCount"`
	} `json:"places"`
}

func (c *httpClient) SearchBusinesses(ctx context.Context, query string) ([]Business, error) {
	body, err := json.Marshal(searchRequest{
		TextQuery:    query,
		LanguageCode: "pt-BR",
		RegionCode:   "BR",
	})
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: text search returned %d: %s", resp.StatusCode, raw)
	}

	var out searchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "places: decode response")
	}

	businesses := make([]Business, 0, len(out.Places))
	for _, p := range out.Places {
		businesses = append(businesses, Business{
			PlaceID:     p.ID,
			Name:        p.DisplayName.Text,
			Address:     p.FormattedAddress,
			Phone:       p.NationalPhoneNumber,
			Website:     p.WebsiteURI,
			Rating:      p.Rating,
			RatingCount: p.UserRatingCount,
		})
	}
	return businesses, nil
}
