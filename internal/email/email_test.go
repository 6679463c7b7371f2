package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/quota"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.75, 0.75},
		{0, 0},
		{1, 1},
		{-0.5, 0},
		{85, 0.85},  // 0..100 display scale
		{150, 1.0},  // out of range even after rescale
		{1.01, 1.0}, // float drift on a 0..1 scale, not a percentage
		{1.5, 1.0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, Normalize(c.in), 1e-9, "in=%v", c.in)
	}
}

func TestPatternCandidates(t *testing.T) {
	got := PatternCandidates("Joe's Plumbing", "joesplumbing.com")
	require.NotEmpty(t, got)
	assert.Equal(t, "info@joesplumbing.com", got[0])
	assert.Contains(t, got, "contact@joesplumbing.com")
	assert.Contains(t, got, "joes@joesplumbing.com")

	// short first token is dropped
	got = PatternCandidates("AB Corp", "ab.com")
	for _, g := range got {
		assert.False(t, strings.HasPrefix(g, "ab@"), "got %v", got)
	}

	assert.Nil(t, PatternCandidates("Acme", "nodot"))
	assert.Nil(t, PatternCandidates("Acme", ""))
	assert.Equal(t, "info@acme.com", PatternCandidates("Acme", " ACME.com ")[0])
}

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractEmail_MailtoFirst(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<p>Reach us at sales@acme.com</p>
		<a href="mailto:Office@Acme.com?subject=Hi">Email us</a>
	</body></html>`)
	assert.Equal(t, "office@acme.com", ExtractEmail(doc))
}

func TestExtractEmail_BodyTextFallback(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<footer>Questions? contact@acmeplumbing.com or call 555-0101.</footer>
	</body></html>`)
	assert.Equal(t, "contact@acmeplumbing.com", ExtractEmail(doc))
}

func TestExtractEmail_SkipsPlaceholders(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<a href="mailto:user@example.com">demo</a>
		<p>logo@2x.png team@sentry.io</p>
		<p>real contact: hello@acme.com</p>
	</body></html>`)
	assert.Equal(t, "hello@acme.com", ExtractEmail(doc))
}

func TestExtractEmail_NothingFound(t *testing.T) {
	doc := docFromHTML(t, `<html><body><p>Call us!</p></body></html>`)
	assert.Equal(t, "", ExtractEmail(doc))
}

func TestDomainFromWebsite(t *testing.T) {
	assert.Equal(t, "acme.com", domainFromWebsite("https://www.acme.com/contact"))
	assert.Equal(t, "acme.com", domainFromWebsite("acme.com"))
	assert.Equal(t, "", domainFromWebsite(""))
}

type fakeLookup struct {
	email string
	err   error
	calls int
}

func (f *fakeLookup) Name() string { return "contactlookup" }

func (f *fakeLookup) LookupEmail(ctx context.Context, b domain.Business) (string, error) {
	f.calls++
	return f.email, f.err
}

func lookupRegistry(quotaPerDay int) *quota.Registry {
	return quota.NewRegistry([]config.Provider{
		{Name: "contactlookup", Enabled: true, Rank: 1, QuotaPerDay: quotaPerDay},
	})
}

func TestTryLookup_ConsumesQuota(t *testing.T) {
	lk := &fakeLookup{email: "owner@acme.com"}
	d := NewDiscoverer(nil, nil, lookupRegistry(1), lk)

	res, ok := d.tryLookup(context.Background(), domain.Business{Name: "Acme"})
	require.True(t, ok)
	assert.Equal(t, "owner@acme.com", res.Email)
	assert.Equal(t, SourceLookupAPI, res.Source)
	assert.Equal(t, ConfidenceLookup, res.Confidence)

	// quota exhausted: no second call reaches the API
	_, ok = d.tryLookup(context.Background(), domain.Business{Name: "Acme"})
	assert.False(t, ok)
	assert.Equal(t, 1, lk.calls)
}

func TestTryLookup_NilLookupDisabled(t *testing.T) {
	d := NewDiscoverer(nil, nil, lookupRegistry(10), nil)
	_, ok := d.tryLookup(context.Background(), domain.Business{Name: "Acme"})
	assert.False(t, ok)
}

func TestTryLookup_EmptyResultIsMiss(t *testing.T) {
	lk := &fakeLookup{email: ""}
	d := NewDiscoverer(nil, nil, lookupRegistry(10), lk)
	_, ok := d.tryLookup(context.Background(), domain.Business{Name: "Acme"})
	assert.False(t, ok)
	assert.Equal(t, 1, lk.calls)
}

func TestDiscover_PatternGuessSkipsLookup(t *testing.T) {
	// site with no address anywhere: scrape misses, pattern guess lands
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Call us!</p></body></html>`))
	}))
	defer srv.Close()

	lk := &fakeLookup{email: "owner@acme.com"}
	d := NewDiscoverer(nil, nil, lookupRegistry(10), lk)

	res, err := d.Discover(context.Background(), domain.Business{Name: "Acme Plumbing", Website: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, SourcePatternGuess, res.Source)
	assert.True(t, strings.HasPrefix(res.Email, "info@"), "got %q", res.Email)
	assert.Equal(t, 0, lk.calls, "paid lookup must not run once a guess exists")
}

func TestDiscoverBatch_NormalizesExistingEmails(t *testing.T) {
	d := NewDiscoverer(nil, nil, nil, nil)
	businesses := []domain.Business{
		{Name: "A", Email: "a@acme.com", EmailSource: SourceLookupAPI, EmailConfidence: 95},
		{Name: "B", Email: "b@acme.com", EmailConfidence: 0.4},
	}

	var mu struct {
		n int
	}
	d.DiscoverBatch(context.Background(), businesses, 2, func(i int, b domain.Business) {
		mu.n++
	})

	assert.Equal(t, 2, mu.n)
	assert.InDelta(t, 0.95, businesses[0].EmailConfidence, 1e-9)
	assert.InDelta(t, 0.4, businesses[1].EmailConfidence, 1e-9)
}
