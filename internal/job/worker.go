package job

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"leadscout-engine/internal/cache"
	"leadscout-engine/internal/dedupe"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/store"
)

// maxFetchRounds bounds how many source-router passes a job makes before
// settling for what it found.
const maxFetchRounds = 5

// Fetcher is the source orchestrator (see internal/source.Router).
type Fetcher interface {
	Fetch(ctx context.Context, query, location string, limit int) ([]domain.Business, string, error)
}

// Enricher runs email discovery over a batch (see internal/email.Discoverer).
type Enricher interface {
	DiscoverBatch(ctx context.Context, businesses []domain.Business, concurrency int, onDone func(i int, b domain.Business))
}

type Worker struct {
	DB       *sql.DB
	Router   Fetcher
	Enricher Enricher
	Cache    *cache.Layer
	Hub      *events.Hub

	EmailConcurrency int
}

// Run executes the pipeline for one job: fetch through the router, dedupe,
// discover emails, persist incrementally, finish. Returns an error only for
// storage failures the bus should retry; exhausted sources are not errors.
func (w *Worker) Run(ctx context.Context, jobID string) error {
	j, err := store.GetJob(ctx, w.DB, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return nil
	}

	tok := NewCancelToken(w.DB, jobID)
	if tok.Cancelled(ctx) {
		return w.finish(ctx, jobID, domain.JobCancelled, "Cancelled")
	}

	if err := store.SetJobStatus(ctx, w.DB, jobID, domain.JobRunning, "Searching sources"); err != nil {
		return err
	}
	if err := store.UpdateJobProgress(ctx, w.DB, jobID, 5, "Searching sources"); err != nil {
		return err
	}

	// ---- Discovery: router rounds until target met or sources exhausted ----
	engine := dedupe.NewEngine()
	emptyRounds := 0
	for round := 0; round < maxFetchRounds && engine.Len() < j.TargetCount; round++ {
		if tok.Cancelled(ctx) {
			return w.finish(ctx, jobID, domain.JobCancelled, "Cancelled during search")
		}

		need := j.TargetCount - engine.Len()
		listings, src, err := w.Router.Fetch(ctx, j.Query, j.Location, need)
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			emptyRounds++
			if emptyRounds >= 2 {
				break
			}
			continue
		}

		added := 0
		for _, b := range listings {
			if keep, why := ShouldKeepBusiness(j.Targeting, b); !keep {
				log.Printf("[worker] job=%s skipped (%s) name=%q", jobID, why, b.Name)
				continue
			}
			if engine.Add(b) {
				added++
			}
		}
		log.Printf("[worker] job=%s round=%d source=%s got=%d kept=%d total=%d",
			jobID, round, src, len(listings), added, engine.Len())

		progress := 5 + (45*engine.Len())/j.TargetCount
		msg := fmt.Sprintf("Found %d of %d businesses", engine.Len(), j.TargetCount)
		if err := store.UpdateJobProgress(ctx, w.DB, jobID, progress, msg); err != nil {
			return err
		}
	}

	records := engine.Records()
	if len(records) > j.TargetCount {
		records = records[:j.TargetCount]
	}
	if len(records) == 0 {
		// total exhaustion still completes, with zero results
		return w.finish(ctx, jobID, domain.JobCompleted, "No businesses found")
	}
	for i := range records {
		records[i].JobID = jobID
	}

	if tok.Cancelled(ctx) {
		return w.finish(ctx, jobID, domain.JobCancelled, "Cancelled before enrichment")
	}

	// ---- Enrichment: email discovery + incremental persistence ----
	var (
		mu        sync.Mutex
		persisted []domain.Business
		done      int
		storeErr  error
		cancelled bool
	)
	total := len(records)

	w.Enricher.DiscoverBatch(ctx, records, w.EmailConcurrency, func(i int, b domain.Business) {
		mu.Lock()
		defer mu.Unlock()
		done++

		if cancelled || storeErr != nil {
			return
		}
		if tok.Cancelled(ctx) {
			cancelled = true
			return
		}

		added, id, err := store.InsertBusiness(ctx, w.DB, b)
		if err != nil {
			storeErr = err
			return
		}
		if added {
			b.ID = id
			persisted = append(persisted, b)
		}

		progress := 50 + (45*done)/total
		msg := fmt.Sprintf("Enriched %d of %d businesses", done, total)
		if err := store.UpdateJobProgress(ctx, w.DB, jobID, progress, msg); err != nil {
			storeErr = err
		}
	})

	if storeErr != nil {
		return storeErr
	}
	if cancelled {
		return w.finish(ctx, jobID, domain.JobCancelled,
			fmt.Sprintf("Cancelled after %d businesses", len(persisted)))
	}

	// ---- Finalize: cache snapshot for popular queries, mark completed ----
	if w.Cache != nil {
		if stored, err := w.Cache.Store(ctx, j.Query, j.Location, persisted); err != nil {
			log.Printf("[worker] job=%s cache store err: %v", jobID, err)
		} else if stored {
			log.Printf("[worker] job=%s cached %d results", jobID, len(persisted))
		}
	}

	withEmail := 0
	for _, b := range persisted {
		if b.HasEmail() {
			withEmail++
		}
	}
	msg := fmt.Sprintf("Found %d businesses, %d with email", len(persisted), withEmail)
	return w.finish(ctx, jobID, domain.JobCompleted, msg)
}

func (w *Worker) finish(ctx context.Context, jobID string, status domain.JobStatus, msg string) error {
	if status == domain.JobCompleted {
		if err := store.UpdateJobProgress(ctx, w.DB, jobID, 100, msg); err != nil {
			return err
		}
	}
	if err := store.SetJobStatus(ctx, w.DB, jobID, status, msg); err != nil {
		return err
	}
	if w.Hub != nil {
		w.Hub.Publish(events.MakeEvent("", "job_"+string(status), 1, map[string]any{"id": jobID}))
	}
	return nil
}
