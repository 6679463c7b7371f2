package source

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/quota"
)

type fakeProvider struct {
	name     string
	listings []domain.Business
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchListings(ctx context.Context, query, location string, limit int) ([]domain.Business, error) {
	f.calls++
	return f.listings, f.err
}

type fakeScraper struct {
	listings []domain.Business
	err      error
	calls    int
}

func (f *fakeScraper) Name() string { return "webscrape" }

func (f *fakeScraper) Scrape(ctx context.Context, query, location string, limit int) ([]domain.Business, error) {
	f.calls++
	return f.listings, f.err
}

func testRegistry(quotas map[string]int) *quota.Registry {
	var providers []config.Provider
	rank := 1
	for _, name := range []string{"places", "localdir"} {
		q, ok := quotas[name]
		if !ok {
			continue
		}
		providers = append(providers, config.Provider{
			Name: name, Enabled: true, Rank: rank, QuotaPerDay: q,
		})
		rank++
	}
	return quota.NewRegistry(providers)
}

func someListings(n int) []domain.Business {
	out := make([]domain.Business, n)
	for i := range out {
		out[i] = domain.Business{Name: fmt.Sprintf("Business %d", i)}
	}
	return out
}

func TestRouter_PrefersRankedProvider(t *testing.T) {
	p1 := &fakeProvider{name: "places", listings: someListings(3)}
	p2 := &fakeProvider{name: "localdir", listings: someListings(3)}
	sc := &fakeScraper{listings: someListings(3)}
	r := NewRouter(testRegistry(map[string]int{"places": 10, "localdir": 10}), []Provider{p1, p2}, sc, true)

	got, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "places", src)
	assert.Equal(t, 1, p1.calls)
	assert.Zero(t, p2.calls)
	assert.Zero(t, sc.calls)
}

func TestRouter_EmptyProviderFallsThrough(t *testing.T) {
	p1 := &fakeProvider{name: "places"} // returns nothing
	p2 := &fakeProvider{name: "localdir", listings: someListings(2)}
	r := NewRouter(testRegistry(map[string]int{"places": 10, "localdir": 10}), []Provider{p1, p2}, &fakeScraper{}, true)

	got, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "localdir", src)
}

func TestRouter_AuthFailureSidelinesForSession(t *testing.T) {
	p1 := &fakeProvider{name: "places", err: fmt.Errorf("401: %w", ErrAuth)}
	p2 := &fakeProvider{name: "localdir", listings: someListings(2)}
	r := NewRouter(testRegistry(map[string]int{"places": 10, "localdir": 10}), []Provider{p1, p2}, &fakeScraper{}, true)

	_, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Equal(t, "localdir", src)
	assert.Equal(t, 1, p1.calls)

	// second fetch never touches the sidelined provider again
	_, _, err = r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, p1.calls)
}

func TestRouter_TransientProviderErrorFallsThrough(t *testing.T) {
	p1 := &fakeProvider{name: "places", err: errors.New("timeout")}
	p2 := &fakeProvider{name: "localdir", listings: someListings(2)}
	r := NewRouter(testRegistry(map[string]int{"places": 10, "localdir": 10}), []Provider{p1, p2}, &fakeScraper{}, true)

	_, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Equal(t, "localdir", src)

	// not sidelined: tried again next fetch
	_, _, _ = r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	assert.Equal(t, 2, p1.calls)
}

func TestRouter_QuotaExhaustionFallsToScrape(t *testing.T) {
	p1 := &fakeProvider{name: "places", listings: someListings(2)}
	sc := &fakeScraper{listings: someListings(2)}
	r := NewRouter(testRegistry(map[string]int{"places": 1}), []Provider{p1}, sc, true)

	_, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Equal(t, "places", src)

	_, src, err = r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Equal(t, "webscrape", src)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 1, sc.calls)
}

func TestRouter_ScrapeOnlyWhenAPIsNotPreferred(t *testing.T) {
	p1 := &fakeProvider{name: "places", listings: someListings(2)}
	sc := &fakeScraper{listings: someListings(2)}
	r := NewRouter(testRegistry(map[string]int{"places": 10}), []Provider{p1}, sc, false)

	_, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Equal(t, "webscrape", src)
	assert.Zero(t, p1.calls)
}

func TestRouter_ScrapeErrorIsNotFatal(t *testing.T) {
	sc := &fakeScraper{err: errors.New("blocked")}
	r := NewRouter(testRegistry(nil), nil, sc, true)

	got, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, src)
}

func TestRouter_TotalExhaustion(t *testing.T) {
	r := NewRouter(testRegistry(nil), nil, nil, true)
	got, src, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, src)
}

func TestRouter_ZeroLimitShortCircuits(t *testing.T) {
	p1 := &fakeProvider{name: "places", listings: someListings(2)}
	r := NewRouter(testRegistry(map[string]int{"places": 10}), []Provider{p1}, &fakeScraper{}, true)

	got, _, err := r.Fetch(context.Background(), "plumbers", "austin, tx", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, p1.calls)
}

func TestRouter_RecordsSourceMix(t *testing.T) {
	reg := testRegistry(map[string]int{"places": 10})
	p1 := &fakeProvider{name: "places", listings: someListings(4)}
	sc := &fakeScraper{listings: someListings(4)}
	r := NewRouter(reg, []Provider{p1}, sc, true)

	_, _, _ = r.Fetch(context.Background(), "plumbers", "austin, tx", 4)
	reg.MarkUnavailable("places")
	_, _, _ = r.Fetch(context.Background(), "plumbers", "austin, tx", 4)

	snap := reg.Snapshot()
	assert.EqualValues(t, 4, snap.ProviderResults)
	assert.EqualValues(t, 4, snap.ScrapeResults)
	assert.InDelta(t, 0.5, snap.ProviderShare, 1e-9)
}
