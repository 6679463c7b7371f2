// Package cache short-circuits repeat query+location searches with a
// sqlite-backed snapshot store.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/store"
)

const (
	MissReasonNoEntry = "cache_miss"
	MissReasonExpired = "cache_expired"
)

type Layer struct {
	DB                *sql.DB
	TTL               time.Duration
	PopularMinRepeats int
	WarmQueries       []string // "query|location" entries always cache-eligible

	lookups int64 // session counters for the health report
	hits    int64
}

func New(db *sql.DB, ttl time.Duration, popularMinRepeats int, warmQueries []string) *Layer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if popularMinRepeats <= 0 {
		popularMinRepeats = 3
	}
	return &Layer{
		DB:                db,
		TTL:               ttl,
		PopularMinRepeats: popularMinRepeats,
		WarmQueries:       warmQueries,
	}
}

// Normalize canonicalizes a query+location pair before hashing so that
// "Dentists, Austin, TX " and "dentists, austin, tx" share a key.
func Normalize(query, location string) (string, string) {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(s)), " "))
	}
	return norm(query), norm(location)
}

func Key(query, location string) string {
	q, loc := Normalize(query, location)
	sum := sha256.Sum256([]byte(q + "|" + loc))
	return hex.EncodeToString(sum[:])
}

type Hit struct {
	Businesses []domain.Business `json:"businesses"`
	Age        time.Duration     `json:"age"`
	CachedAt   time.Time         `json:"cachedAt"`
}

type Miss struct {
	Reason string `json:"reason"`
}

// Lookup returns a prior snapshot when one exists and is fresh. Every call
// also bumps the repeat-frequency counter feeding the popularity heuristic.
func (l *Layer) Lookup(ctx context.Context, query, location string) (*Hit, *Miss, error) {
	atomic.AddInt64(&l.lookups, 1)
	key := Key(query, location)

	q, loc := Normalize(query, location)
	if _, err := store.BumpQueryCount(ctx, l.DB, key, q, loc); err != nil {
		log.Printf("[cache] bump count err: %v", err)
	}

	row, ok, err := store.GetCacheEntry(ctx, l.DB, key)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, &Miss{Reason: MissReasonNoEntry}, nil
	}

	age := time.Since(row.CreatedAt)
	if age > l.TTL {
		return nil, &Miss{Reason: MissReasonExpired}, nil
	}

	var businesses []domain.Business
	if err := json.Unmarshal([]byte(row.Results), &businesses); err != nil {
		return nil, &Miss{Reason: MissReasonNoEntry}, nil
	}

	atomic.AddInt64(&l.hits, 1)
	store.BumpCacheHits(ctx, l.DB, key)
	return &Hit{Businesses: businesses, Age: age, CachedAt: row.CreatedAt}, nil, nil
}

// Store snapshots results for a popular query. Unpopular queries are
// silently skipped; stored reports whether a write happened.
func (l *Layer) Store(ctx context.Context, query, location string, businesses []domain.Business) (stored bool, err error) {
	key := Key(query, location)
	eligible, err := l.eligible(ctx, key, query, location)
	if err != nil {
		return false, err
	}
	if !eligible {
		return false, nil
	}

	b, err := json.Marshal(businesses)
	if err != nil {
		return false, fmt.Errorf("cache marshal: %w", err)
	}
	q, loc := Normalize(query, location)
	if err := store.PutCacheEntry(ctx, l.DB, key, q, loc, string(b)); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Layer) eligible(ctx context.Context, key, query, location string) (bool, error) {
	q, loc := Normalize(query, location)
	for _, w := range l.WarmQueries {
		wq, wloc := splitWarmEntry(w)
		if wq == q && wloc == loc {
			return true, nil
		}
	}
	count, err := store.QueryCount(ctx, l.DB, key)
	if err != nil {
		return false, err
	}
	return count >= l.PopularMinRepeats, nil
}

// Maintain sweeps expired entries and reports how many were evicted.
func (l *Layer) Maintain(ctx context.Context) (evicted int64, err error) {
	cutoff := time.Now().Add(-l.TTL)
	return store.DeleteCacheBefore(ctx, l.DB, cutoff)
}

// RunSearch executes one query through the full pipeline, used by Warm.
type RunSearch func(ctx context.Context, query, location string) ([]domain.Business, error)

// Warm pre-populates the cache by running the top known-popular queries
// through the pipeline. Returns how many queries were executed.
func (l *Layer) Warm(ctx context.Context, maxQueries int, run RunSearch) (int, error) {
	if maxQueries <= 0 {
		maxQueries = 5
	}

	type target struct{ query, location string }
	var targets []target
	seen := map[string]bool{}

	for _, w := range l.WarmQueries {
		q, loc := splitWarmEntry(w)
		if q == "" || seen[Key(q, loc)] {
			continue
		}
		seen[Key(q, loc)] = true
		targets = append(targets, target{q, loc})
	}
	popular, err := store.TopQueries(ctx, l.DB, maxQueries)
	if err != nil {
		return 0, err
	}
	for _, p := range popular {
		if p.Count < l.PopularMinRepeats || seen[Key(p.Query, p.Location)] {
			continue
		}
		seen[Key(p.Query, p.Location)] = true
		targets = append(targets, target{p.Query, p.Location})
	}
	if len(targets) > maxQueries {
		targets = targets[:maxQueries]
	}

	warmed := 0
	for _, t := range targets {
		businesses, err := run(ctx, t.query, t.location)
		if err != nil {
			log.Printf("[cache] warm run err query=%q err=%v", t.query, err)
			continue
		}
		b, err := json.Marshal(businesses)
		if err != nil {
			continue
		}
		q, loc := Normalize(t.query, t.location)
		if err := store.PutCacheEntry(ctx, l.DB, Key(q, loc), q, loc, string(b)); err != nil {
			log.Printf("[cache] warm store err query=%q err=%v", t.query, err)
			continue
		}
		warmed++
	}
	return warmed, nil
}

type Health struct {
	Reachable   bool    `json:"reachable"`
	Entries     int     `json:"entries"`
	SessionRate float64 `json:"sessionHitRate"` // 0..1 over this process lifetime
}

func (l *Layer) Health(ctx context.Context) Health {
	var h Health
	stats, err := store.GetCacheStats(ctx, l.DB)
	if err != nil {
		return h
	}
	h.Reachable = true
	h.Entries = stats.Entries
	if lookups := atomic.LoadInt64(&l.lookups); lookups > 0 {
		h.SessionRate = float64(atomic.LoadInt64(&l.hits)) / float64(lookups)
	}
	return h
}

func splitWarmEntry(w string) (query, location string) {
	parts := strings.SplitN(w, "|", 2)
	q, loc := parts[0], ""
	if len(parts) == 2 {
		loc = parts[1]
	}
	return Normalize(q, loc)
}
