package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS push_subscriptions (
	endpoint           TEXT PRIMARY KEY,
	p256dh             TEXT NOT NULL,
	auth               TEXT NOT NULL,
	last_answered_date TEXT CHECK (last_answered_date ~ '^[0-9]{4}-[0-9]{2}-[0-9]{2}$'),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ramadan_window_cache (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	source_url TEXT NOT NULL DEFAULT ''
);
`

// MigratePostgres creates the backend tables when they do not exist.
func MigratePostgres(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("repository: migrate failed: %w", err)
	}
	return nil
}

const (
	pgCodeCheckViolation = "23514"
	pgCodeNotNull        = "23502"
	pgCodeStringTooLong  = "22001"
)

// pgErrorCode extracts the SQLSTATE from either driver. The server runs on pgx,
// the integration tests connect through lib/pq.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func mapSubscriptionError(err error) error {
	switch pgErrorCode(err) {
	case pgCodeCheckViolation:
		return domain.ErrInvalidDate
	case pgCodeNotNull, pgCodeStringTooLong:
		return domain.ErrInvalidSubscription
	}
	return err
}
