package repository

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

func openTestSQLite(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fasting.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteLogRepository(openTestSQLite(t))
	now := time.Date(2026, 2, 18, 12, 30, 0, 0, time.UTC)

	t.Run("Success: Put upserts by date", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, domain.NewLogEntry("2026-02-18", domain.StatusFasting, now)))
		require.NoError(t, repo.Put(ctx, domain.NewLogEntry("2026-02-19", domain.StatusFasting, now)))
		require.NoError(t, repo.Put(ctx, domain.NewLogEntry("2026-02-18", domain.StatusNotFasting, now.Add(time.Hour))))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)

		byDate := map[string]*domain.LogEntry{}
		for _, e := range all {
			byDate[e.Date] = e
		}
		assert.Equal(t, domain.StatusNotFasting, byDate["2026-02-18"].Status)
		assert.True(t, byDate["2026-02-18"].UpdatedAt.Equal(now.Add(time.Hour)))
	})

	t.Run("Fail: Unknown status is rejected by the table", func(t *testing.T) {
		err := repo.Put(ctx, &domain.LogEntry{Date: "2026-02-20", Status: "maybe", UpdatedAt: now})
		assert.Error(t, err)
	})
}

func TestSQLiteMetaRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteMetaRepository(openTestSQLite(t))

	_, ok, err := repo.Get(ctx, domain.MetaSubscriptionEndpoint)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, domain.MetaSubscriptionEndpoint, "http://localhost:8787/push/1"))
	require.NoError(t, repo.Set(ctx, domain.MetaSubscriptionEndpoint, "http://localhost:8787/push/2"))

	v, ok, err := repo.Get(ctx, domain.MetaSubscriptionEndpoint)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:8787/push/2", v)
}

func TestSQLiteCacheStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewSQLiteCacheStorage(openTestSQLite(t))
	storedAt := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)

	shell := &domain.CachedResponse{
		URL:        "http://localhost:8080/index.html",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       []byte("<html>shell</html>"),
		StoredAt:   storedAt,
	}

	t.Run("Success: Stored response matches byte for byte", func(t *testing.T) {
		require.NoError(t, storage.Put(ctx, "fasting-pwa-v2", shell))

		got, err := storage.Match(ctx, "fasting-pwa-v2", shell.URL)
		require.NoError(t, err)

		if diff := cmp.Diff(shell, got); diff != "" {
			t.Errorf("cached response mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Fail: Miss in another namespace", func(t *testing.T) {
		_, err := storage.Match(ctx, "fasting-pwa-v1", shell.URL)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Success: PutAll, Keys and Delete", func(t *testing.T) {
		app := &domain.CachedResponse{URL: "http://localhost:8080/app.js", StatusCode: 200, Header: http.Header{}, Body: []byte("x"), StoredAt: storedAt}
		require.NoError(t, storage.PutAll(ctx, "fasting-pwa-v1", []*domain.CachedResponse{shell, app}))

		keys, err := storage.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"fasting-pwa-v1", "fasting-pwa-v2"}, keys)

		require.NoError(t, storage.Delete(ctx, "fasting-pwa-v1"))

		keys, err = storage.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"fasting-pwa-v2"}, keys)
	})
}
