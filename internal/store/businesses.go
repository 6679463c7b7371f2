package store

import (
	"context"
	"database/sql"
	"errors"

	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/errs"
)

// InsertBusiness persists one deduplicated business. The unique index on
// (job_id, name_key) makes the insert idempotent across worker retries;
// added reports whether a new row landed.
func InsertBusiness(ctx context.Context, db *sql.DB, b domain.Business) (added bool, id int64, err error) {
	if b.Name == "" {
		return false, 0, errors.New("missing business name")
	}
	if b.JobID == "" {
		return false, 0, errors.New("missing job id")
	}

	res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO businesses
  (job_id, source_key, name, name_key, website, phone, address, rating, review_count,
   employee_count, industry_code, is_b2b, source, email, email_source, email_confidence,
   years_in_business, social_handle)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		b.JobID, b.SourceKey, b.Name, b.NameKey(), b.Website, b.Phone, b.Address,
		b.Rating, b.ReviewCount, b.EmployeeCount, b.IndustryCode, boolToInt(b.IsB2B),
		b.Source, b.Email, b.EmailSource, b.EmailConfidence, b.YearsInBusiness, b.SocialHandle,
	)
	if err != nil {
		return false, 0, errs.Wrap(errs.KindStorage, err, "insert business %q", b.Name)
	}

	var changes int
	if e := db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil && changes == 0 {
		return false, 0, nil
	}
	id, _ = res.LastInsertId()
	return true, id, nil
}

// ListBusinessesAfter returns businesses for a job with id > afterID in
// ascending id order. The stream poller relies on this ordering.
func ListBusinessesAfter(ctx context.Context, db *sql.DB, jobID string, afterID int64) ([]domain.Business, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, job_id, source_key, name, website, phone, address, rating, review_count,
       employee_count, industry_code, is_b2b, source, email, email_source,
       email_confidence, years_in_business, social_handle
FROM businesses
WHERE job_id = ? AND id > ?
ORDER BY id ASC;`, jobID, afterID)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorage, err, "list businesses %s", jobID)
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		var b domain.Business
		var isB2B int
		if err := rows.Scan(
			&b.ID, &b.JobID, &b.SourceKey, &b.Name, &b.Website, &b.Phone, &b.Address,
			&b.Rating, &b.ReviewCount, &b.EmployeeCount, &b.IndustryCode, &isB2B,
			&b.Source, &b.Email, &b.EmailSource, &b.EmailConfidence,
			&b.YearsInBusiness, &b.SocialHandle,
		); err != nil {
			return nil, err
		}
		b.IsB2B = isB2B != 0
		out = append(out, b)
	}
	return out, rows.Err()
}
