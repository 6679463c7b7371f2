package email

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reEmail = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Paths probed on a business site, homepage first.
var contactPaths = []string{"", "/contact", "/contact-us", "/about", "/about-us"}

// scrapeWebsite probes the homepage and common contact pages for an email
// address. Addresses found on a contact page score slightly higher.
func (d *Discoverer) scrapeWebsite(ctx context.Context, website string) Result {
	base := strings.TrimRight(strings.TrimSpace(website), "/")
	if base == "" {
		return Result{}
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	for _, path := range contactPaths {
		pageURL := base + path
		email := d.scrapePage(ctx, pageURL)
		if email == "" {
			continue
		}
		if path == "" {
			return Result{Email: email, Source: SourceWebsiteScrape, Confidence: ConfidenceWebsite}
		}
		return Result{Email: email, Source: SourceContactPage, Confidence: ConfidenceContactPage}
	}
	return Result{}
}

func (d *Discoverer) scrapePage(ctx context.Context, pageURL string) string {
	if d.Limiter != nil {
		if err := d.Limiter.WaitURL(ctx, pageURL); err != nil {
			return ""
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := d.hc.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	return ExtractEmail(doc)
}

// ExtractEmail pulls the best address out of a parsed page: mailto links
// first, then addresses in visible text. Obvious placeholders are skipped.
func ExtractEmail(doc *goquery.Document) string {
	var found string

	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
		if dec, err := url.QueryUnescape(addr); err == nil {
			addr = dec
		}
		if validCandidate(addr) {
			found = strings.ToLower(addr)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	text := doc.Find("body").Text()
	for _, m := range reEmail.FindAllString(text, 10) {
		if validCandidate(m) {
			return strings.ToLower(m)
		}
	}
	return ""
}

func validCandidate(addr string) bool {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" || !reEmail.MatchString(addr) {
		return false
	}
	// placeholder and asset junk that shows up in page text
	for _, bad := range []string{"example.com", "yourdomain", "sentry", "wixpress", ".png", ".jpg", ".gif", ".webp"} {
		if strings.Contains(addr, bad) {
			return false
		}
	}
	return true
}
