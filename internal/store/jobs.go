package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/errs"
)

func CreateJob(ctx context.Context, db *sql.DB, j domain.SearchJob) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO jobs (id, query, location, target_count, priority, status, progress, message,
                  industry, min_employees, max_employees, target_state, b2c_only, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		j.ID, j.Query, j.Location, j.TargetCount, string(j.Priority), string(j.Status),
		j.Progress, j.Message,
		j.Targeting.Industry, j.Targeting.MinEmployees, j.Targeting.MaxEmployees,
		j.Targeting.TargetState, boolToInt(j.Targeting.B2COnly),
		j.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errs.Wrap(errs.KindStorage, err, "create job %s", j.ID)
	}
	return nil
}

func GetJob(ctx context.Context, db *sql.DB, id string) (domain.SearchJob, error) {
	var (
		j           domain.SearchJob
		priority    string
		status      string
		b2cOnly     int
		createdAt   string
		completedAt sql.NullString
	)
	err := db.QueryRowContext(ctx, `
SELECT id, query, location, target_count, priority, status, progress, message,
       industry, min_employees, max_employees, target_state, b2c_only,
       created_at, completed_at
FROM jobs WHERE id = ? LIMIT 1;`, id).Scan(
		&j.ID, &j.Query, &j.Location, &j.TargetCount, &priority, &status, &j.Progress, &j.Message,
		&j.Targeting.Industry, &j.Targeting.MinEmployees, &j.Targeting.MaxEmployees,
		&j.Targeting.TargetState, &b2cOnly,
		&createdAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return domain.SearchJob{}, errs.E(errs.KindNotFound, "job %s not found", id)
	}
	if err != nil {
		return domain.SearchJob{}, errs.Wrap(errs.KindStorage, err, "get job %s", id)
	}

	j.Priority = domain.Priority(priority)
	j.Status = domain.JobStatus(status)
	j.Targeting.B2COnly = b2cOnly != 0
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if completedAt.Valid && completedAt.String != "" {
		if t, perr := time.Parse(time.RFC3339, completedAt.String); perr == nil {
			j.CompletedAt = &t
		}
	}
	return j, nil
}

// UpdateJobProgress raises progress and message on a non-terminal job.
// The MAX() guard keeps progress monotonic even under racing writers;
// terminal rows are left untouched.
func UpdateJobProgress(ctx context.Context, db *sql.DB, id string, progress int, message string) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	_, err := db.ExecContext(ctx, `
UPDATE jobs
SET progress = MAX(progress, ?), message = ?
WHERE id = ? AND status IN ('pending','running');`,
		progress, message, id)
	if err != nil {
		return errs.Wrap(errs.KindStorage, err, "update progress %s", id)
	}
	return nil
}

// SetJobStatus transitions a job. Transitions out of a terminal state are
// refused at the SQL level, except failed -> running (retry).
func SetJobStatus(ctx context.Context, db *sql.DB, id string, status domain.JobStatus, message string) error {
	completed := ""
	if status.Terminal() {
		completed = time.Now().UTC().Format(time.RFC3339)
	}

	var res sql.Result
	var err error
	if status == domain.JobRunning {
		res, err = db.ExecContext(ctx, `
UPDATE jobs SET status = ?, message = ?, completed_at = NULL
WHERE id = ? AND status IN ('pending','failed','running');`,
			string(status), message, id)
	} else {
		res, err = db.ExecContext(ctx, `
UPDATE jobs SET status = ?, message = ?, completed_at = ?
WHERE id = ? AND status IN ('pending','running');`,
			string(status), message, nullIfEmpty(completed), id)
	}
	if err != nil {
		return errs.Wrap(errs.KindStorage, err, "set status %s=%s", id, status)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already terminal or missing; callers treat this as a no-op.
		return nil
	}
	return nil
}

// RequestCancel flags the job for cooperative cancellation. A still-pending
// job is cancelled in place; a running worker observes the flag at its next
// checkpoint.
func RequestCancel(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `
UPDATE jobs SET cancel_requested = 1 WHERE id = ?;`, id)
	if err != nil {
		return errs.Wrap(errs.KindStorage, err, "request cancel %s", id)
	}
	_, err = db.ExecContext(ctx, `
UPDATE jobs SET status = 'cancelled', message = 'Cancelled before start',
               completed_at = ?
WHERE id = ? AND status = 'pending';`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return errs.Wrap(errs.KindStorage, err, "cancel pending %s", id)
	}
	return nil
}

func CancelRequested(ctx context.Context, db *sql.DB, id string) (bool, error) {
	var flag int
	err := db.QueryRowContext(ctx, `SELECT cancel_requested FROM jobs WHERE id = ? LIMIT 1;`, id).Scan(&flag)
	if err == sql.ErrNoRows {
		return false, errs.E(errs.KindNotFound, "job %s not found", id)
	}
	if err != nil {
		return false, errs.Wrap(errs.KindStorage, err, "cancel flag %s", id)
	}
	return flag != 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// JobCounts summarizes discovered businesses for the status endpoint.
type JobCounts struct {
	Total     int `json:"total"`
	WithEmail int `json:"withEmail"`
	Verified  int `json:"verified"`
}

func CountBusinesses(ctx context.Context, db *sql.DB, jobID string) (JobCounts, error) {
	var c JobCounts
	err := db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN email != '' THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN email != '' AND email_confidence >= 0.9 THEN 1 ELSE 0 END), 0)
FROM businesses WHERE job_id = ?;`, jobID).Scan(&c.Total, &c.WithEmail, &c.Verified)
	if err != nil {
		return JobCounts{}, fmt.Errorf("count businesses: %w", err)
	}
	return c, nil
}
