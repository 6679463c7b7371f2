package source

import (
	"context"
	"errors"

	"leadscout-engine/internal/domain"
)

// ErrAuth marks provider authentication/config failures. The router
// sidelines the provider for the session instead of retrying it.
var ErrAuth = errors.New("provider auth failed")

// Provider is one structured-data listing source, tried by the router in
// ranked order before scraping.
type Provider interface {
	Name() string
	FetchListings(ctx context.Context, query, location string, limit int) ([]domain.Business, error)
}

// Scraper is the terminal fallback when no provider can serve.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, query, location string, limit int) ([]domain.Business, error)
}
