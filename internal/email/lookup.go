package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"leadscout-engine/internal/domain"
)

// LookupClient calls a paid people/contact API. It satisfies Lookup and is
// gated by the quota registry like any other provider.
type LookupClient struct {
	BaseURL string
	APIKey  string

	hc *http.Client
}

func NewLookupClient(baseURL, apiKey string) *LookupClient {
	return &LookupClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *LookupClient) Name() string { return "contactlookup" }

type lookupResponse struct {
	Email    string  `json:"email"`
	Score    float64 `json:"score"` // provider reports 0..100
	Verified bool    `json:"verified"`
}

func (c *LookupClient) LookupEmail(ctx context.Context, b domain.Business) (string, error) {
	q := url.Values{}
	q.Set("company", b.Name)
	if dom := domainFromWebsite(b.Website); dom != "" {
		q.Set("domain", dom)
	}

	endpoint := c.BaseURL + "/v2/domain-search?" + q.Encode()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("contact lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("contact lookup status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("contact lookup decode: %w", err)
	}
	return body.Email, nil
}
