package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const DefaultWindowTTL = 24 * time.Hour

type WindowService struct {
	cache  domain.WindowCache
	source domain.WindowSource
	loc    *time.Location
	ttl    time.Duration
	now    func() time.Time
}

func NewWindowService(cache domain.WindowCache, source domain.WindowSource, loc *time.Location) *WindowService {
	if loc == nil {
		loc = time.UTC
	}
	return &WindowService{
		cache:  cache,
		source: source,
		loc:    loc,
		ttl:    DefaultWindowTTL,
		now:    time.Now,
	}
}

// Window serves the cached window while it is fresh and belongs to the current year,
// otherwise scrapes a new one. When scraping fails the old window is returned marked stale.
func (s *WindowService) Window(ctx context.Context) (*domain.RamadanWindow, error) {
	now := s.now().In(s.loc)

	cached, err := s.cache.Load(ctx)
	if err != nil {
		log.Printf("[WINDOW] Cache read failed: %v", err)
		cached = nil
	}

	if cached != nil && s.usable(cached, now) {
		return cached, nil
	}

	fresh, fetchErr := s.source.Fetch(ctx, now.Year())
	if fetchErr == nil {
		fresh.Stale = false
		if fresh.FetchedAt.IsZero() {
			fresh.FetchedAt = now
		}
		if err := s.cache.Store(ctx, fresh); err != nil {
			log.Printf("[WINDOW] Cache write failed: %v", err)
		}
		return fresh, nil
	}

	if cached != nil {
		log.Printf("[WINDOW] Refresh failed, serving stale window: %v", fetchErr)
		cached.Stale = true
		return cached, nil
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrWindowUnavailable, fetchErr)
}

func (s *WindowService) usable(w *domain.RamadanWindow, now time.Time) bool {
	if w.FetchedAt.IsZero() || now.Sub(w.FetchedAt) > s.ttl {
		return false
	}

	start, err := domain.ParseDate(w.StartDate)
	if err != nil {
		return false
	}
	end, err := domain.ParseDate(w.EndDate)
	if err != nil {
		return false
	}
	return start.Year() == now.Year() || end.Year() == now.Year()
}
