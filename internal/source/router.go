package source

import (
	"context"
	"errors"
	"log"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/quota"
)

// Router decides, per unit of work, whether the next batch of listings comes
// from a paid provider or from scraping. Providers are tried in registry
// rank order; scraping is the terminal fallback. Total exhaustion is not an
// error: the caller just gets fewer businesses than asked for.
type Router struct {
	registry   *quota.Registry
	providers  map[string]Provider
	scraper    Scraper
	preferAPIs bool
}

func NewRouter(registry *quota.Registry, providers []Provider, scraper Scraper, preferAPIs bool) *Router {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Router{
		registry:   registry,
		providers:  byName,
		scraper:    scraper,
		preferAPIs: preferAPIs,
	}
}

// Fetch pulls up to limit listings for one unit of work. It reports the
// source that served ("" when everything came up empty).
func (r *Router) Fetch(ctx context.Context, query, location string, limit int) ([]domain.Business, string, error) {
	if limit <= 0 {
		return nil, "", nil
	}

	if r.preferAPIs {
		for _, name := range r.registry.Ranked() {
			p, ok := r.providers[name]
			if !ok || !r.registry.HasQuota(name) {
				continue
			}
			if !r.registry.Consume(name, 1) {
				continue
			}

			listings, err := p.FetchListings(ctx, query, location, limit)
			if err != nil {
				if errors.Is(err, ErrAuth) {
					log.Printf("[router] provider %s auth failed, sidelining for session: %v", name, err)
					r.registry.MarkUnavailable(name)
				} else {
					log.Printf("[router] provider %s error, falling through: %v", name, err)
				}
				continue
			}
			if len(listings) == 0 {
				log.Printf("[router] provider %s returned empty, falling through", name)
				continue
			}

			r.registry.RecordResults(name, true, len(listings))
			return listings, name, nil
		}
	}

	if r.scraper == nil {
		return nil, "", nil
	}

	listings, err := r.scraper.Scrape(ctx, query, location, limit)
	if err != nil {
		// Scraping is the last rung; an error here just means this unit of
		// work found nothing.
		log.Printf("[router] scrape error: %v", err)
		return nil, "", nil
	}
	if len(listings) > 0 {
		r.registry.RecordResults(r.scraper.Name(), false, len(listings))
	}
	return listings, r.scraper.Name(), nil
}
