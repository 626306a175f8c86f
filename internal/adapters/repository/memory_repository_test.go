package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

func TestInMemoryLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryLogRepository()
	now := time.Date(2026, 2, 18, 10, 0, 0, 0, time.UTC)

	t.Run("Concurrent puts keep one entry per date", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				date := fmt.Sprintf("2026-02-%02d", 18+i%3)
				_ = repo.Put(ctx, domain.NewLogEntry(date, domain.StatusFasting, now))
			}(i)
		}
		wg.Wait()

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Returned entries are copies", func(t *testing.T) {
		all, _ := repo.GetAll(ctx)
		all[0].Status = domain.StatusNotFasting

		again, _ := repo.GetAll(ctx)
		assert.Equal(t, domain.StatusFasting, again[0].Status)
	})
}

func TestInMemoryMetaRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryMetaRepository()

	_, ok, err := repo.Get(ctx, domain.MetaSubscriptionEndpoint)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, domain.MetaSubscriptionEndpoint, "a"))
	require.NoError(t, repo.Set(ctx, domain.MetaSubscriptionEndpoint, "b"))

	v, ok, err := repo.Get(ctx, domain.MetaSubscriptionEndpoint)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestInMemoryWindowCache_StaleFlagNotPersisted(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryWindowCache()

	require.NoError(t, c.Store(ctx, &domain.RamadanWindow{StartDate: "2026-02-18", EndDate: "2026-03-19", Stale: true}))

	w, err := c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, w.Stale)

	w.Stale = true
	again, _ := c.Load(ctx)
	assert.False(t, again.Stale)
}
