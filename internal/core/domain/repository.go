package domain

import (
	"context"
)

type LogRepository interface {
	// Put upserts the entry by date, replacing any previous answer for that day.
	Put(ctx context.Context, entry *LogEntry) error

	// GetAll returns every entry in no particular order.
	GetAll(ctx context.Context) ([]*LogEntry, error)
}

type MetaRepository interface {
	// Set upserts a value by key.
	Set(ctx context.Context, key, value string) error

	// Get returns the value and whether it exists. A missing key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
}

type SubscriptionRepository interface {
	// Upsert inserts the subscription or refreshes its keys, keyed by endpoint.
	Upsert(ctx context.Context, sub *Subscription) error

	// List returns every stored subscription.
	List(ctx context.Context) ([]*SubscriptionRecord, error)

	// MarkAnswered records the last answered date.
	// Returns ErrSubscriptionNotFound when the endpoint is unknown.
	MarkAnswered(ctx context.Context, endpoint, date string) error

	// Delete removes a subscription, typically after the push service reports it gone.
	Delete(ctx context.Context, endpoint string) error
}

// WindowCache keeps the last scraped Ramadan window, including expired ones
// so they can be served as stale.
type WindowCache interface {
	// Load returns nil, nil when nothing is cached.
	Load(ctx context.Context) (*RamadanWindow, error)
	Store(ctx context.Context, w *RamadanWindow) error
}

// WindowSource produces a fresh Ramadan window for the given year.
type WindowSource interface {
	Fetch(ctx context.Context, year int) (*RamadanWindow, error)
}
