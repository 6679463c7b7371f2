// Package dedupe merges multi-source listings into canonical business
// records, keyed by lower-cased name within a job.
package dedupe

import (
	"leadscout-engine/internal/domain"
)

// Engine collects businesses for one job and resolves identity collisions.
// Not safe for concurrent use; the worker owns one per job.
type Engine struct {
	byKey map[string]int // name key -> index into records
	seq   map[string]int // name key -> arrival order, final tie-break
	order []string       // insertion order of keys
	recs  []domain.Business
	next  int
}

func NewEngine() *Engine {
	return &Engine{
		byKey: make(map[string]int),
		seq:   make(map[string]int),
	}
}

// Add offers a record. When the identity is new it is kept and Add reports
// true; on collision the better record wins and Add reports whether the
// offered one replaced the existing one.
func (e *Engine) Add(b domain.Business) (kept bool) {
	key := b.NameKey()
	if key == "" {
		return false
	}

	idx, exists := e.byKey[key]
	if !exists {
		e.byKey[key] = len(e.recs)
		e.seq[key] = e.next
		e.next++
		e.order = append(e.order, key)
		e.recs = append(e.recs, b)
		return true
	}

	if better(b, e.recs[idx]) {
		e.recs[idx] = b
		return true
	}
	return false
}

// Records returns the canonical set in first-seen order.
func (e *Engine) Records() []domain.Business {
	out := make([]domain.Business, 0, len(e.order))
	for _, key := range e.order {
		out = append(out, e.recs[e.byKey[key]])
	}
	return out
}

func (e *Engine) Len() int { return len(e.order) }

// better reports whether a should replace b. The comparison is total:
// completeness, then rating, then review count, then the incumbent wins
// (first-seen order).
func better(a, b domain.Business) bool {
	ca, cb := completeness(a), completeness(b)
	if ca != cb {
		return ca > cb
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.ReviewCount != b.ReviewCount {
		return a.ReviewCount > b.ReviewCount
	}
	return false
}

func completeness(b domain.Business) int {
	n := 0
	if b.Website != "" {
		n++
	}
	if b.Phone != "" {
		n++
	}
	if b.Email != "" {
		n++
	}
	if b.Address != "" {
		n++
	}
	return n
}
