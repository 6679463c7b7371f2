package localdir

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

// Client talks to a local-directory business API (Yelp-style envelope).
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

func (c *Client) Name() string { return "localdir" }

type dirBusiness struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URL        string   `json:"url"`
	Phone      string   `json:"display_phone"`
	Rating     float64  `json:"rating"`
	Reviews    int      `json:"review_count"`
	Categories []string `json:"categories"`
	Location   struct {
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
	Attributes struct {
		EmployeeCount   int    `json:"employee_count"`
		YearsInBusiness int    `json:"years_in_business"`
		Instagram       string `json:"instagram"`
	} `json:"attributes"`
}

type dirResponse struct {
	Businesses []dirBusiness `json:"businesses"`
	Total      int           `json:"total"`
}

func (c *Client) FetchListings(ctx context.Context, query, location string, limit int) ([]domain.Business, error) {
	q := url.Values{}
	q.Set("term", query)
	if location != "" {
		q.Set("location", location)
	}
	q.Set("limit", strconv.Itoa(limit))

	endpoint := c.cfg.BaseURL + "/v3/businesses/search?" + q.Encode()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	req.Header.Set("User-Agent", "LeadScout/1.0 (+local)")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("localdir search: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("localdir status %d: %w", res.StatusCode, source.ErrAuth)
	case res.StatusCode >= 400:
		return nil, fmt.Errorf("localdir status %d", res.StatusCode)
	}

	var body dirResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("localdir decode: %w", err)
	}

	out := make([]domain.Business, 0, len(body.Businesses))
	for _, b := range body.Businesses {
		if b.Name == "" {
			continue
		}
		addr := ""
		if len(b.Location.DisplayAddress) > 0 {
			addr = b.Location.DisplayAddress[0]
			for _, part := range b.Location.DisplayAddress[1:] {
				addr += ", " + part
			}
		}
		industry := ""
		if len(b.Categories) > 0 {
			industry = b.Categories[0]
		}
		out = append(out, domain.Business{
			SourceKey:       "localdir:" + b.ID,
			Name:            b.Name,
			Website:         b.URL,
			Phone:           b.Phone,
			Address:         addr,
			Rating:          b.Rating,
			ReviewCount:     b.Reviews,
			EmployeeCount:   b.Attributes.EmployeeCount,
			IndustryCode:    industry,
			YearsInBusiness: b.Attributes.YearsInBusiness,
			SocialHandle:    b.Attributes.Instagram,
			Source:          "localdir",
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
