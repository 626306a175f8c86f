package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var (
	_ domain.LogRepository  = (*SQLiteLogRepository)(nil)
	_ domain.MetaRepository = (*SQLiteMetaRepository)(nil)
)

type SQLiteLogRepository struct {
	db *sqlx.DB
}

func NewSQLiteLogRepository(db *sqlx.DB) *SQLiteLogRepository {
	return &SQLiteLogRepository{db: db}
}

type logRow struct {
	Date      string `db:"date"`
	Status    string `db:"status"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r *SQLiteLogRepository) Put(ctx context.Context, entry *domain.LogEntry) error {
	query := `
		INSERT INTO logs (date, status, updated_at)
		VALUES (:date, :status, :updated_at)
		ON CONFLICT (date) DO UPDATE
		SET status = excluded.status,
		    updated_at = excluded.updated_at`

	row := logRow{
		Date:      entry.Date,
		Status:    string(entry.Status),
		UpdatedAt: entry.UpdatedAt.UnixMilli(),
	}

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("repository: put log failed: %w", err)
	}
	return nil
}

func (r *SQLiteLogRepository) GetAll(ctx context.Context) ([]*domain.LogEntry, error) {
	rows := []logRow{}

	if err := r.db.SelectContext(ctx, &rows, `SELECT date, status, updated_at FROM logs`); err != nil {
		return nil, fmt.Errorf("repository: read logs failed: %w", err)
	}

	logs := make([]*domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, &domain.LogEntry{
			Date:      row.Date,
			Status:    domain.Status(row.Status),
			UpdatedAt: time.UnixMilli(row.UpdatedAt).UTC(),
		})
	}
	return logs, nil
}

type SQLiteMetaRepository struct {
	db *sqlx.DB
}

func NewSQLiteMetaRepository(db *sqlx.DB) *SQLiteMetaRepository {
	return &SQLiteMetaRepository{db: db}
}

func (r *SQLiteMetaRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("repository: set meta %q failed: %w", key, err)
	}
	return nil
}

func (r *SQLiteMetaRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := r.db.GetContext(ctx, &value, `SELECT value FROM meta WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("repository: get meta %q failed: %w", key, err)
	}
	return value, true, nil
}
