package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leadscout-engine/internal/store"
)

// Hosts that can top a web search for a business but are never its own site.
var searchBlocklist = []string{
	"yelp.com",
	"yellowpages.com",
	"bbb.org",
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"tripadvisor.com",
	"mapquest.com",
	"angi.com",
	"thumbtack.com",
	"wikipedia.org",
	"crunchbase.com",
}

// findDomain resolves a business name to its website domain, caching
// results in the store across jobs.
func (d *Discoverer) findDomain(ctx context.Context, business string) (string, error) {
	if d.DB != nil {
		cached, err := store.GetBusinessDomain(ctx, d.DB, business)
		if err != nil {
			return "", err
		}
		if cached != "" {
			return cached, nil
		}
	}

	found, err := d.searchDomainDDG(ctx, business)
	if err != nil || found == "" {
		return "", err
	}

	if d.DB != nil {
		if err := store.UpsertBusinessDomain(ctx, d.DB, business, found); err != nil {
			return "", err
		}
	}
	return found, nil
}

func (d *Discoverer) searchDomainDDG(ctx context.Context, business string) (string, error) {
	business = strings.TrimSpace(business)
	if business == "" {
		return "", nil
	}

	query := fmt.Sprintf("%s official website", sanitizeForSearch(business))
	u := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)

	if d.Limiter != nil {
		if err := d.Limiter.WaitURL(ctx, u); err != nil {
			return "", nil
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := d.hc.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", nil
	}

	var best string

	// DDG HTML results: <a class="result__a" href="...">
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}

		target := decodeDDGRedirect(href)
		host := hostFromURL(target)
		if host == "" {
			return true
		}

		host = strings.ToLower(strings.TrimPrefix(host, "www."))
		if isBlockedSearchHost(host) {
			return true
		}

		best = host
		return false // stop at first good domain
	})

	return best, nil
}

func decodeDDGRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
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

func isBlockedSearchHost(host string) bool {
	for _, b := range searchBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

func sanitizeForSearch(s string) string {
	s = strings.TrimSpace(s)
	repls := []string{
		", Inc.", "", " Inc.", "", " Inc", "",
		", LLC", "", " LLC", "",
		", Ltd.", "", " Ltd.", "", " Ltd", "",
	}
	r := strings.NewReplacer(repls...)
	s = r.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
