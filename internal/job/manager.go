// Package job owns the lifecycle of lead-discovery jobs: creation,
// progress, cancellation, and the worker pipeline that fills them.
package job

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"leadscout-engine/internal/cache"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/errs"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/store"
)

const (
	maxQueryLen    = 200
	maxLocationLen = 120
	minTarget      = 1
	maxTarget      = 500
)

// Enqueuer is the creation-event bus (see internal/bus).
type Enqueuer interface {
	Enqueue(jobID string, priority domain.Priority) bool
}

type CreateRequest struct {
	Query      string              `json:"query"`
	Location   string              `json:"location"`
	Count      int                 `json:"count"`
	Priority   string              `json:"priority"`
	B2BTargets domain.B2BTargeting `json:"b2bTargeting"`
}

type Manager struct {
	DB    *sql.DB
	Bus   Enqueuer
	Hub   *events.Hub
	Cache *cache.Layer
}

// Create validates, persists a pending job, and emits a creation event.
// A fresh cache hit skips the pipeline entirely: the job is persisted
// already completed with the snapshot's businesses.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (domain.SearchJob, error) {
	query, err := sanitize("query", req.Query, maxQueryLen, true)
	if err != nil {
		return domain.SearchJob{}, err
	}
	location, err := sanitize("location", req.Location, maxLocationLen, false)
	if err != nil {
		return domain.SearchJob{}, err
	}

	count := req.Count
	if count < minTarget {
		count = minTarget
	}
	if count > maxTarget {
		count = maxTarget
	}

	priority := domain.Priority(strings.ToLower(strings.TrimSpace(req.Priority)))
	switch priority {
	case "":
		priority = domain.PriorityNormal
	case domain.PriorityHigh, domain.PriorityNormal, domain.PriorityLow:
	default:
		return domain.SearchJob{}, errs.E(errs.KindValidation, "priority must be high, normal, or low")
	}

	j := domain.SearchJob{
		ID:          domain.NewJobID(time.Now()),
		Query:       query,
		Location:    location,
		TargetCount: count,
		Priority:    priority,
		Status:      domain.JobPending,
		Message:     "Queued",
		Targeting:   req.B2BTargets,
		CreatedAt:   time.Now().UTC(),
	}

	if hit := m.cacheLookup(ctx, query, location); hit != nil {
		return m.createFromCache(ctx, j, hit)
	}

	if err := store.CreateJob(ctx, m.DB, j); err != nil {
		return domain.SearchJob{}, err
	}
	if ok := m.Bus.Enqueue(j.ID, j.Priority); !ok {
		// queue full: the job stays pending and inspectable
		_ = store.UpdateJobProgress(ctx, m.DB, j.ID, 0, "Queued (dispatcher busy)")
	}
	m.publish("job_created", map[string]any{"id": j.ID})
	return j, nil
}

func (m *Manager) cacheLookup(ctx context.Context, query, location string) *cache.Hit {
	if m.Cache == nil {
		return nil
	}
	hit, _, err := m.Cache.Lookup(ctx, query, location)
	if err != nil {
		return nil
	}
	return hit
}

func (m *Manager) createFromCache(ctx context.Context, j domain.SearchJob, hit *cache.Hit) (domain.SearchJob, error) {
	j.Status = domain.JobRunning
	j.Progress = 0
	if err := store.CreateJob(ctx, m.DB, j); err != nil {
		return domain.SearchJob{}, err
	}
	if err := store.SetJobStatus(ctx, m.DB, j.ID, domain.JobRunning, "Serving cached results"); err != nil {
		return domain.SearchJob{}, err
	}
	for _, b := range hit.Businesses {
		b.JobID = j.ID
		if b.Source == "" {
			b.Source = "cache"
		}
		_, _, _ = store.InsertBusiness(ctx, m.DB, b)
	}
	_ = store.UpdateJobProgress(ctx, m.DB, j.ID, 100, "Served from cache")
	if err := store.SetJobStatus(ctx, m.DB, j.ID, domain.JobCompleted, "Served from cache"); err != nil {
		return domain.SearchJob{}, err
	}
	m.publish("job_completed", map[string]any{"id": j.ID, "cached": true})
	j.Status = domain.JobCompleted
	j.Progress = 100
	j.Message = "Served from cache"
	return j, nil
}

// Get looks up a job by id. Ids outside the job_ namespace are rejected
// before touching the store.
func (m *Manager) Get(ctx context.Context, id string) (domain.SearchJob, error) {
	if !domain.ValidJobID(id) {
		return domain.SearchJob{}, errs.E(errs.KindNotFound, "job %s not found", id)
	}
	return store.GetJob(ctx, m.DB, id)
}

// UpdateProgress is the worker-facing progress write: monotonic, no-op on
// terminal jobs.
func (m *Manager) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	return store.UpdateJobProgress(ctx, m.DB, id, progress, message)
}

// Cancel flags the job for cooperative cancellation. Always accepted; the
// worker may still finish first.
func (m *Manager) Cancel(ctx context.Context, id string) error {
	if !domain.ValidJobID(id) {
		return errs.E(errs.KindNotFound, "job %s not found", id)
	}
	if _, err := store.GetJob(ctx, m.DB, id); err != nil {
		return err
	}
	if err := store.RequestCancel(ctx, m.DB, id); err != nil {
		return err
	}
	m.publish("job_cancel_requested", map[string]any{"id": id})
	return nil
}

// MarkFailed is the bus's terminal failure path.
func (m *Manager) MarkFailed(ctx context.Context, id string, message string) {
	_ = store.SetJobStatus(ctx, m.DB, id, domain.JobFailed, message)
	m.publish("job_failed", map[string]any{"id": id})
}

func (m *Manager) publish(typ string, data map[string]any) {
	if m.Hub != nil {
		m.Hub.Publish(events.MakeEvent("", typ, 1, data))
	}
}

func sanitize(field, s string, maxLen int, required bool) (string, error) {
	s = strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
	if s == "" {
		if required {
			return "", errs.E(errs.KindValidation, "%s is required", field)
		}
		return "", nil
	}
	if len(s) > maxLen {
		return "", errs.E(errs.KindValidation, "%s exceeds %d characters", field, maxLen)
	}
	for _, r := range s {
		if unicode.IsControl(r) || r == '<' || r == '>' {
			return "", errs.E(errs.KindValidation, "%s contains invalid characters", field)
		}
	}
	return s, nil
}
