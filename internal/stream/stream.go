// Package stream relays job progress to subscribers by polling the store.
// Each subscription is an independent poll loop; there is no server-side
// fan-out, trading some redundant reads for simplicity.
package stream

import (
	"context"
	"database/sql"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/store"
)

// SendFunc delivers one named event to the subscriber. A send error tears
// the subscription down (client gone).
type SendFunc func(event string, v any) error

type StatusEvent struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

type DoneEvent struct {
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type Streamer struct {
	DB       *sql.DB
	Interval time.Duration // poll period; reference deployment uses 1s
}

func New(db *sql.DB, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Streamer{DB: db, Interval: interval}
}

// Stream serves one subscription: an initial snapshot (status plus every
// business discovered so far), then deltas each poll tick, then a terminal
// done event. Returns when the job finishes, the context is cancelled, or
// send fails.
func (s *Streamer) Stream(ctx context.Context, jobID string, send SendFunc) error {
	j, err := store.GetJob(ctx, s.DB, jobID)
	if err != nil {
		return err
	}

	if err := send("status", statusOf(j)); err != nil {
		return err
	}

	var lastID int64
	sent := 0
	batch, err := store.ListBusinessesAfter(ctx, s.DB, jobID, 0)
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := send("businesses", batch); err != nil {
			return err
		}
		lastID = batch[len(batch)-1].ID
		sent = len(batch)
	}

	if j.Status.Terminal() {
		return send("done", DoneEvent{Status: string(j.Status), Total: sent})
	}

	last := statusOf(j)
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		j, err := store.GetJob(ctx, s.DB, jobID)
		if err != nil {
			return err
		}

		cur := statusOf(j)
		if cur != last {
			if err := send("status", cur); err != nil {
				return err
			}
			last = cur
		}

		batch, err := store.ListBusinessesAfter(ctx, s.DB, jobID, lastID)
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := send("businesses", batch); err != nil {
				return err
			}
			lastID = batch[len(batch)-1].ID
			sent += len(batch)
		}

		if j.Status.Terminal() {
			return send("done", DoneEvent{Status: string(j.Status), Total: sent})
		}
	}
}

func statusOf(j domain.SearchJob) StatusEvent {
	return StatusEvent{
		ID:       j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Message:  j.Message,
	}
}
