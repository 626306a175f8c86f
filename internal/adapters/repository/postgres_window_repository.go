package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var _ domain.WindowCache = (*PostgresWindowRepository)(nil)

// PostgresWindowRepository persists the last scraped window in a single-row table
// so a restart does not lose the stale fallback.
type PostgresWindowRepository struct {
	db *sqlx.DB
}

func NewPostgresWindowRepository(db *sqlx.DB) *PostgresWindowRepository {
	return &PostgresWindowRepository{db: db}
}

type windowRow struct {
	StartDate string       `db:"start_date"`
	EndDate   string       `db:"end_date"`
	FetchedAt sql.NullTime `db:"fetched_at"`
	SourceURL string       `db:"source_url"`
}

func (r *PostgresWindowRepository) Load(ctx context.Context) (*domain.RamadanWindow, error) {
	var row windowRow

	err := r.db.GetContext(ctx, &row, `SELECT start_date, end_date, fetched_at, source_url FROM ramadan_window_cache WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: load window failed: %w", err)
	}

	return &domain.RamadanWindow{
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		FetchedAt: row.FetchedAt.Time.UTC(),
		SourceURL: row.SourceURL,
	}, nil
}

func (r *PostgresWindowRepository) Store(ctx context.Context, w *domain.RamadanWindow) error {
	if err := w.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO ramadan_window_cache (id, start_date, end_date, fetched_at, source_url)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    fetched_at = EXCLUDED.fetched_at,
		    source_url = EXCLUDED.source_url`

	if _, err := r.db.ExecContext(ctx, query, w.StartDate, w.EndDate, w.FetchedAt.UTC(), w.SourceURL); err != nil {
		return fmt.Errorf("repository: store window failed: %w", err)
	}
	return nil
}
