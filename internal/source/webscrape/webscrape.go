package webscrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/ratelimit"
)

// Aggregator/directory hosts that are never the business itself.
var domainBlocklist = []string{
	"yelp.com",
	"yellowpages.com",
	"bbb.org",
	"mapquest.com",
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"tripadvisor.com",
	"foursquare.com",
	"angi.com",
	"thumbtack.com",
	"nextdoor.com",
	"groupon.com",
	"wikipedia.org",
	"crunchbase.com",
	"duckduckgo.com",
	"google.com",
	"bing.com",
}

type Config struct {
	FanOut int // concurrent page hydrations
}

// Scraper discovers businesses from web search results when no structured
// provider can serve, then hydrates each candidate site for contact details.
type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *ratelimit.HostLimiter
}

func New(cfg Config, limiter *ratelimit.HostLimiter) *Scraper {
	if cfg.FanOut <= 0 {
		cfg.FanOut = 4
	}
	return &Scraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return "webscrape" }

// Scrape searches DuckDuckGo's HTML endpoint for candidate business sites,
// then visits each to pull a display name and phone number.
func (s *Scraper) Scrape(ctx context.Context, query, location string, limit int) ([]domain.Business, error) {
	terms := query
	if location != "" {
		terms = query + " " + location
	}
	searchURL := "https://duckduckgo.com/html/?q=" + url.QueryEscape(terms)

	if err := s.limiter.WaitURL(ctx, searchURL); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webscrape search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webscrape search status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("webscrape parse: %w", err)
	}

	type candidate struct {
		host  string
		title string
	}
	seen := map[string]bool{}
	var candidates []candidate

	doc.Find("a.result__a").Each(func(_ int, a *goquery.Selection) {
		if len(candidates) >= limit {
			return
		}
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		target := decodeDDGRedirect(href)
		host := hostFromURL(target)
		if host == "" {
			return
		}
		host = strings.ToLower(strings.TrimPrefix(host, "www."))
		if isBlockedDomain(host) || seen[host] {
			return
		}
		seen[host] = true
		candidates = append(candidates, candidate{host: host, title: cleanText(a.Text())})
	})

	// Hydrate candidate sites with bounded fan-out.
	out := make([]domain.Business, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanOut)
	for i, c := range candidates {
		g.Go(func() error {
			b := domain.Business{
				SourceKey: "webscrape:" + c.host,
				Name:      nameFromTitle(c.title, c.host),
				Website:   "https://" + c.host,
				Source:    "webscrape",
			}
			if phone, name := s.hydrateSite(gctx, c.host); phone != "" || name != "" {
				if phone != "" {
					b.Phone = phone
				}
				if name != "" {
					b.Name = name
				}
			}
			mu.Lock()
			out[i] = b
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var kept []domain.Business
	for _, b := range out {
		if b.Name != "" {
			kept = append(kept, b)
		}
	}
	return kept, nil
}

// hydrateSite fetches the homepage for a display name and phone.
// Best-effort: errors leave the search-result title in place.
func (s *Scraper) hydrateSite(ctx context.Context, host string) (phone, name string) {
	pageURL := "https://" + host
	if err := s.limiter.Wait(ctx, host); err != nil {
		return "", ""
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.hc.Do(req)
	if err != nil {
		log.Printf("[webscrape] hydrate err host=%s err=%v", host, err)
		return "", ""
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", ""
	}

	if og, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		name = cleanText(og)
	}
	if name == "" {
		name = nameFromTitle(cleanText(doc.Find("title").First().Text()), host)
	}

	doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		phone = cleanText(strings.TrimPrefix(href, "tel:"))
		return false
	})

	return phone, name
}

func decodeDDGRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	// DDG sometimes uses /l/?uddg=<urlencoded>
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}

func hostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func isBlockedDomain(host string) bool {
	for _, b := range domainBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// nameFromTitle strips taglines ("Acme Dental | Austin's Best ...") down to
// the leading business name, falling back to the bare host.
func nameFromTitle(title, host string) string {
	for _, sep := range []string{" | ", " - ", " – ", " :: ", " — "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
			break
		}
	}
	title = cleanText(title)
	if title != "" {
		return title
	}
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
