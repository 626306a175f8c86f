package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var _ domain.CacheStorage = (*SQLiteCacheStorage)(nil)

// SQLiteCacheStorage keeps the worker's versioned response caches in the local database.
type SQLiteCacheStorage struct {
	db *sqlx.DB
}

func NewSQLiteCacheStorage(db *sqlx.DB) *SQLiteCacheStorage {
	return &SQLiteCacheStorage{db: db}
}

type cacheRow struct {
	Namespace string `db:"namespace"`
	URL       string `db:"url"`
	Status    int    `db:"status"`
	Header    string `db:"header"`
	Body      []byte `db:"body"`
	StoredAt  int64  `db:"stored_at"`
}

const upsertCacheEntry = `
	INSERT INTO cache_entries (namespace, url, status, header, body, stored_at)
	VALUES (:namespace, :url, :status, :header, :body, :stored_at)
	ON CONFLICT (namespace, url) DO UPDATE
	SET status = excluded.status,
	    header = excluded.header,
	    body = excluded.body,
	    stored_at = excluded.stored_at`

func toCacheRow(namespace string, resp *domain.CachedResponse) (cacheRow, error) {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return cacheRow{}, fmt.Errorf("encode header: %w", err)
	}

	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	body := resp.Body
	if body == nil {
		body = []byte{}
	}

	return cacheRow{
		Namespace: namespace,
		URL:       resp.URL,
		Status:    resp.StatusCode,
		Header:    string(header),
		Body:      body,
		StoredAt:  storedAt.UnixMilli(),
	}, nil
}

func (s *SQLiteCacheStorage) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}

	if err := s.db.SelectContext(ctx, &keys, `SELECT DISTINCT namespace FROM cache_entries ORDER BY namespace`); err != nil {
		return nil, fmt.Errorf("cache storage: list namespaces failed: %w", err)
	}
	return keys, nil
}

func (s *SQLiteCacheStorage) Put(ctx context.Context, namespace string, resp *domain.CachedResponse) error {
	row, err := toCacheRow(namespace, resp)
	if err != nil {
		return fmt.Errorf("cache storage: %w", err)
	}

	if _, err := s.db.NamedExecContext(ctx, upsertCacheEntry, row); err != nil {
		return fmt.Errorf("cache storage: put %s failed: %w", resp.URL, err)
	}
	return nil
}

func (s *SQLiteCacheStorage) PutAll(ctx context.Context, namespace string, resps []*domain.CachedResponse) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache storage: begin failed: %w", err)
	}
	defer tx.Rollback()

	for _, resp := range resps {
		row, err := toCacheRow(namespace, resp)
		if err != nil {
			return fmt.Errorf("cache storage: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, upsertCacheEntry, row); err != nil {
			return fmt.Errorf("cache storage: put %s failed: %w", resp.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache storage: commit failed: %w", err)
	}
	return nil
}

func (s *SQLiteCacheStorage) Match(ctx context.Context, namespace, url string) (*domain.CachedResponse, error) {
	var row cacheRow

	query := `SELECT namespace, url, status, header, body, stored_at FROM cache_entries WHERE namespace = ? AND url = ?`
	if err := s.db.GetContext(ctx, &row, query, namespace, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("cache storage: match %s failed: %w", url, err)
	}

	header := http.Header{}
	if err := json.Unmarshal([]byte(row.Header), &header); err != nil {
		return nil, fmt.Errorf("cache storage: decode header for %s: %w", url, err)
	}

	return &domain.CachedResponse{
		URL:        row.URL,
		StatusCode: row.Status,
		Header:     header,
		Body:       row.Body,
		StoredAt:   time.UnixMilli(row.StoredAt).UTC(),
	}, nil
}

func (s *SQLiteCacheStorage) Delete(ctx context.Context, namespace string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("cache storage: delete %s failed: %w", namespace, err)
	}
	return nil
}
