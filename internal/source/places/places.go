package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/source"
)

type Config struct {
	BaseURL string
	APIKey  string
}

// Client talks to a Places-style structured business search API.
type Client struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Name() string { return "places" }

type placesResult struct {
	PlaceID      string  `json:"place_id"`
	Name         string  `json:"name"`
	Website      string  `json:"website"`
	Phone        string  `json:"formatted_phone_number"`
	Address      string  `json:"formatted_address"`
	Rating       float64 `json:"rating"`
	ReviewCount  int     `json:"user_ratings_total"`
	BusinessType string  `json:"business_type"`
}

type placesResponse struct {
	Status  string         `json:"status"`
	Results []placesResult `json:"results"`
}

func (c *Client) FetchListings(ctx context.Context, query, location string, limit int) ([]domain.Business, error) {
	q := url.Values{}
	q.Set("query", query)
	if location != "" {
		q.Set("location", location)
	}
	q.Set("limit", strconv.Itoa(limit))

	endpoint := c.cfg.BaseURL + "/v1/search?" + q.Encode()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	req.Header.Set("User-Agent", "LeadScout/1.0 (+local)")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("places status %d: %w", res.StatusCode, source.ErrAuth)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("places status %d", res.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("places decode: %w", err)
	}
	if body.Status != "" && body.Status != "OK" && body.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places api status %q", body.Status)
	}

	out := make([]domain.Business, 0, len(body.Results))
	for _, r := range body.Results {
		if r.Name == "" {
			continue
		}
		out = append(out, domain.Business{
			SourceKey:   "places:" + r.PlaceID,
			Name:        r.Name,
			Website:     r.Website,
			Phone:       r.Phone,
			Address:     r.Address,
			Rating:      r.Rating,
			ReviewCount: r.ReviewCount,
			IsB2B:       r.BusinessType == "b2b",
			Source:      "places",
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
