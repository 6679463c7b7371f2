package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// GetBusinessDomain returns a cached domain for a business name or "" if missing.
func GetBusinessDomain(ctx context.Context, db *sql.DB, business string) (string, error) {
	business = normalizeBusinessKey(business)
	if business == "" {
		return "", nil
	}

	var domain string
	err := db.QueryRowContext(ctx,
		`SELECT domain FROM business_domains WHERE business = ? LIMIT 1;`,
		business,
	).Scan(&domain)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(domain), nil
}

func UpsertBusinessDomain(ctx context.Context, db *sql.DB, business, domain string) error {
	business = normalizeBusinessKey(business)
	domain = strings.ToLower(strings.TrimSpace(domain))

	if business == "" || domain == "" {
		return nil
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO business_domains(business, domain, fetched_at)
VALUES(?,?,?)
ON CONFLICT(business) DO UPDATE SET
  domain = excluded.domain,
  fetched_at = excluded.fetched_at;
`, business, domain, time.Now().UTC().Format(time.RFC3339))

	return err
}

func normalizeBusinessKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	return s
}
