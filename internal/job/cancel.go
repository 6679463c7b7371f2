package job

import (
	"context"
	"database/sql"

	"leadscout-engine/internal/store"
)

// CancelToken is the explicit cancellation handle threaded through the
// worker's call chain. Checkpoints call Cancelled between source calls;
// nothing preempts an in-flight network request.
type CancelToken struct {
	db    *sql.DB
	jobID string
}

func NewCancelToken(db *sql.DB, jobID string) *CancelToken {
	return &CancelToken{db: db, jobID: jobID}
}

// Cancelled reads the persisted flag. Store errors report not-cancelled so
// a flaky read never aborts a healthy run.
func (t *CancelToken) Cancelled(ctx context.Context) bool {
	if t == nil {
		return false
	}
	flag, err := store.CancelRequested(ctx, t.db, t.jobID)
	if err != nil {
		return false
	}
	return flag
}
