package quota

import (
	"sync"
	"time"

	"leadscout-engine/internal/config"
)

// scrapeSecondsPerResult is the rough time a scraping pass spends per
// business; used only for the savings estimate on the status endpoint.
const scrapeSecondsPerResult = 2.5

type providerState struct {
	name        string
	rank        int
	remaining   int
	quotaPerDay int
	resetAt     time.Time
	used        int64 // lifetime
	costPerCall float64
	available   bool // flipped off on auth/config failures for the session
}

// Registry tracks provider quota and session source-mix stats. It is shared
// mutable state across concurrent jobs; all access goes through the mutex.
type Registry struct {
	mu        sync.Mutex
	providers map[string]*providerState
	ranked    []string

	providerResults int64
	scrapeResults   int64
	estSavedUSD     float64
	estSavedSec     float64
}

func NewRegistry(providers []config.Provider) *Registry {
	r := &Registry{providers: make(map[string]*providerState)}
	now := time.Now()
	for _, p := range providers {
		if !p.Enabled {
			continue
		}
		r.providers[p.Name] = &providerState{
			name:        p.Name,
			rank:        p.Rank,
			remaining:   p.QuotaPerDay,
			quotaPerDay: p.QuotaPerDay,
			resetAt:     now.Add(24 * time.Hour),
			costPerCall: p.CostPerCall,
			available:   true,
		}
		r.ranked = append(r.ranked, p.Name)
	}
	// stable rank order, lower first
	for i := 0; i < len(r.ranked); i++ {
		for j := i + 1; j < len(r.ranked); j++ {
			if r.providers[r.ranked[j]].rank < r.providers[r.ranked[i]].rank {
				r.ranked[i], r.ranked[j] = r.ranked[j], r.ranked[i]
			}
		}
	}
	return r
}

// Ranked returns provider names in try order.
func (r *Registry) Ranked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ranked))
	copy(out, r.ranked)
	return out
}

// HasQuota reports whether the provider is usable right now, rolling the
// period over first when it has lapsed.
func (r *Registry) HasQuota(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[name]
	if !ok || !p.available {
		return false
	}
	r.rolloverLocked(p)
	return p.remaining > 0
}

// Consume atomically deducts n calls. Returns false when quota would go
// negative (nothing is deducted in that case).
func (r *Registry) Consume(name string, n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[name]
	if !ok || !p.available {
		return false
	}
	r.rolloverLocked(p)
	if p.remaining < n {
		return false
	}
	p.remaining -= n
	p.used += int64(n)
	return true
}

// MarkUnavailable sidelines a provider for the rest of the session
// (auth/config failures).
func (r *Registry) MarkUnavailable(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		p.available = false
	}
}

// RecordResults updates the session provider-vs-scrape split. Provider
// results accrue an estimated time saving over scraping, minus call cost.
func (r *Registry) RecordResults(providerName string, viaProvider bool, n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if viaProvider {
		r.providerResults += int64(n)
		r.estSavedSec += scrapeSecondsPerResult * float64(n)
		if p, ok := r.providers[providerName]; ok {
			r.estSavedUSD -= p.costPerCall
		}
	} else {
		r.scrapeResults += int64(n)
	}
}

func (r *Registry) rolloverLocked(p *providerState) {
	if time.Now().After(p.resetAt) {
		p.remaining = p.quotaPerDay
		p.resetAt = time.Now().Add(24 * time.Hour)
	}
}

type ProviderSnapshot struct {
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
	Used      int64     `json:"used"`
}

type Snapshot struct {
	Providers       []ProviderSnapshot `json:"providers"`
	ProviderResults int64              `json:"providerResults"`
	ScrapeResults   int64              `json:"scrapeResults"`
	ProviderShare   float64            `json:"providerShare"` // 0..1
	EstSavedSeconds float64            `json:"estSavedSeconds"`
	EstNetCostUSD   float64            `json:"estNetCostUSD"`
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Snapshot
	for _, name := range r.ranked {
		p := r.providers[name]
		s.Providers = append(s.Providers, ProviderSnapshot{
			Name:      p.name,
			Available: p.available,
			Remaining: p.remaining,
			ResetAt:   p.resetAt,
			Used:      p.used,
		})
	}
	s.ProviderResults = r.providerResults
	s.ScrapeResults = r.scrapeResults
	if total := r.providerResults + r.scrapeResults; total > 0 {
		s.ProviderShare = float64(r.providerResults) / float64(total)
	}
	s.EstSavedSeconds = r.estSavedSec
	s.EstNetCostUSD = -r.estSavedUSD
	return s
}
