// Package email finds and scores contact addresses for discovered
// businesses. Strategies run cheapest-first; each result carries a source
// tag and a confidence normalized to 0.0..1.0.
package email

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/quota"
	"leadscout-engine/internal/ratelimit"
)

// Confidence per strategy. Verified lookup beats a scraped contact page
// beats a pattern guess.
const (
	ConfidenceLookup      = 0.95
	ConfidenceContactPage = 0.75
	ConfidenceWebsite     = 0.70
	ConfidencePattern     = 0.40
)

// Source tags recorded next to the confidence.
const (
	SourceWebsiteScrape = "website_scrape"
	SourceContactPage   = "contact_page"
	SourcePatternGuess  = "pattern_guess"
	SourceLookupAPI     = "lookup_api"
)

type Result struct {
	Email      string
	Source     string
	Confidence float64
}

// Lookup is the paid contact-API fallback; optional.
type Lookup interface {
	Name() string
	LookupEmail(ctx context.Context, b domain.Business) (string, error)
}

type Discoverer struct {
	DB       *sql.DB // business-domain cache
	Limiter  *ratelimit.HostLimiter
	Registry *quota.Registry
	Lookup   Lookup // nil disables the paid fallback

	hc *http.Client
}

func NewDiscoverer(db *sql.DB, limiter *ratelimit.HostLimiter, registry *quota.Registry, lookup Lookup) *Discoverer {
	return &Discoverer{
		DB:       db,
		Limiter:  limiter,
		Registry: registry,
		Lookup:   lookup,
		hc:       &http.Client{Timeout: 12 * time.Second},
	}
}

// Discover tries, in order: website scrape, pattern guess, paid lookup.
// The paid lookup runs only when both cheaper strategies come up empty.
// A zero Result (no error) means every strategy did.
func (d *Discoverer) Discover(ctx context.Context, b domain.Business) (Result, error) {
	// (a) scrape the business site for a contact address
	if b.Website != "" {
		if res := d.scrapeWebsite(ctx, b.Website); res.Email != "" {
			return res, nil
		}
	}

	// (b) pattern generation against the business domain
	dom := domainFromWebsite(b.Website)
	if dom == "" {
		found, err := d.findDomain(ctx, b.Name)
		if err != nil {
			log.Printf("[email] domain lookup err business=%q err=%v", b.Name, err)
		}
		dom = found
	}
	if dom != "" {
		if cands := PatternCandidates(b.Name, dom); len(cands) > 0 {
			return Result{Email: cands[0], Source: SourcePatternGuess, Confidence: ConfidencePattern}, nil
		}
	}

	// (c) paid lookup only as a last resort
	if up, ok := d.tryLookup(ctx, b); ok {
		return up, nil
	}
	return Result{}, nil
}

func (d *Discoverer) tryLookup(ctx context.Context, b domain.Business) (Result, bool) {
	if d.Lookup == nil {
		return Result{}, false
	}
	name := d.Lookup.Name()
	if d.Registry != nil && !d.Registry.Consume(name, 1) {
		return Result{}, false
	}
	email, err := d.Lookup.LookupEmail(ctx, b)
	if err != nil {
		log.Printf("[email] lookup provider err business=%q err=%v", b.Name, err)
		return Result{}, false
	}
	if email == "" {
		return Result{}, false
	}
	return Result{Email: email, Source: SourceLookupAPI, Confidence: ConfidenceLookup}, true
}

// Normalize clamps a confidence to 0.0..1.0. Values well above 1 are read
// as a 0..100 display scale from upstream sources; values just above 1 are
// float drift and clamp to 1.
func Normalize(confidence float64) float64 {
	if confidence > 1.5 {
		confidence = confidence / 100.0
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func domainFromWebsite(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	host := hostFromURL(website)
	if host == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(host, "www."))
}
