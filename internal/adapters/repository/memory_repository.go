package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var (
	_ domain.LogRepository          = (*InMemoryLogRepository)(nil)
	_ domain.MetaRepository         = (*InMemoryMetaRepository)(nil)
	_ domain.SubscriptionRepository = (*InMemorySubscriptionRepository)(nil)
	_ domain.WindowCache            = (*InMemoryWindowCache)(nil)
	_ domain.CacheStorage           = (*InMemoryCacheStorage)(nil)
)

type InMemoryLogRepository struct {
	store map[string]domain.LogEntry

	mu sync.RWMutex
}

func NewInMemoryLogRepository() *InMemoryLogRepository {
	return &InMemoryLogRepository{
		store: make(map[string]domain.LogEntry),
	}
}

func (r *InMemoryLogRepository) Put(ctx context.Context, entry *domain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[entry.Date] = *entry
	return nil
}

func (r *InMemoryLogRepository) GetAll(ctx context.Context) ([]*domain.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := make([]*domain.LogEntry, 0, len(r.store))
	for _, e := range r.store {
		e := e
		logs = append(logs, &e)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date < logs[j].Date
	})

	return logs, nil
}

type InMemoryMetaRepository struct {
	store map[string]string

	mu sync.RWMutex
}

func NewInMemoryMetaRepository() *InMemoryMetaRepository {
	return &InMemoryMetaRepository{
		store: make(map[string]string),
	}
}

func (r *InMemoryMetaRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[key] = value
	return nil
}

func (r *InMemoryMetaRepository) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.store[key]
	return v, ok, nil
}

type InMemorySubscriptionRepository struct {
	store map[string]domain.SubscriptionRecord
	now   func() time.Time

	mu sync.RWMutex
}

func NewInMemorySubscriptionRepository() *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		store: make(map[string]domain.SubscriptionRecord),
		now:   time.Now,
	}
}

func (r *InMemorySubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.store[sub.Endpoint]
	rec.Endpoint = sub.Endpoint
	rec.P256dh = sub.Keys.P256dh
	rec.Auth = sub.Keys.Auth
	rec.UpdatedAt = r.now().UTC()
	r.store[sub.Endpoint] = rec
	return nil
}

func (r *InMemorySubscriptionRepository) List(ctx context.Context) ([]*domain.SubscriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]*domain.SubscriptionRecord, 0, len(r.store))
	for _, rec := range r.store {
		rec := rec
		if rec.LastAnsweredDate != nil {
			d := *rec.LastAnsweredDate
			rec.LastAnsweredDate = &d
		}
		subs = append(subs, &rec)
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Endpoint < subs[j].Endpoint
	})

	return subs, nil
}

func (r *InMemorySubscriptionRepository) MarkAnswered(ctx context.Context, endpoint, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.store[endpoint]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}

	rec.LastAnsweredDate = &date
	rec.UpdatedAt = r.now().UTC()
	r.store[endpoint] = rec
	return nil
}

func (r *InMemorySubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[endpoint]; !ok {
		return domain.ErrSubscriptionNotFound
	}

	delete(r.store, endpoint)
	return nil
}

// InMemoryWindowCache holds one window. Loads return copies so callers may mark them stale.
type InMemoryWindowCache struct {
	window *domain.RamadanWindow

	mu sync.RWMutex
}

func NewInMemoryWindowCache() *InMemoryWindowCache {
	return &InMemoryWindowCache{}
}

func (c *InMemoryWindowCache) Load(ctx context.Context) (*domain.RamadanWindow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.window == nil {
		return nil, nil
	}
	w := *c.window
	return &w, nil
}

func (c *InMemoryWindowCache) Store(ctx context.Context, w *domain.RamadanWindow) error {
	if err := w.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *w
	stored.Stale = false
	c.window = &stored
	return nil
}

type InMemoryCacheStorage struct {
	store map[string]map[string]*domain.CachedResponse

	mu sync.RWMutex
}

func NewInMemoryCacheStorage() *InMemoryCacheStorage {
	return &InMemoryCacheStorage{
		store: make(map[string]map[string]*domain.CachedResponse),
	}
}

func (s *InMemoryCacheStorage) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.store))
	for ns := range s.store {
		keys = append(keys, ns)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *InMemoryCacheStorage) Put(ctx context.Context, namespace string, resp *domain.CachedResponse) error {
	return s.PutAll(ctx, namespace, []*domain.CachedResponse{resp})
}

func (s *InMemoryCacheStorage) PutAll(ctx context.Context, namespace string, resps []*domain.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.store[namespace]
	if !ok {
		ns = make(map[string]*domain.CachedResponse)
		s.store[namespace] = ns
	}
	for _, r := range resps {
		ns[r.URL] = r.Clone()
	}
	return nil
}

func (s *InMemoryCacheStorage) Match(ctx context.Context, namespace, url string) (*domain.CachedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.store[namespace][url]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return r.Clone(), nil
}

func (s *InMemoryCacheStorage) Delete(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, namespace)
	return nil
}
