package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrCacheMiss          = errors.New("no cached response")
	ErrWorkerUnsupported  = errors.New("background worker is not supported")
	ErrInstallFailed      = errors.New("background worker install failed")
	ErrNetworkUnavailable = errors.New("network request failed")
)

// CachedResponse is a fully buffered response stored under its request URL.
type CachedResponse struct {
	URL        string      `json:"url"`
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

// Clone returns a deep copy so a response and its cached copy never share buffers.
func (r *CachedResponse) Clone() *CachedResponse {
	if r == nil {
		return nil
	}
	out := *r
	out.Header = r.Header.Clone()
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return &out
}

// CacheStorage holds named cache namespaces, each a URL -> response map.
type CacheStorage interface {
	// Keys lists the namespaces that currently hold at least one response.
	Keys(ctx context.Context) ([]string, error)

	// Put stores or replaces one response.
	Put(ctx context.Context, namespace string, resp *CachedResponse) error

	// PutAll stores every response in one transaction; either all are written or none.
	PutAll(ctx context.Context, namespace string, resps []*CachedResponse) error

	// Match returns the response stored for url or ErrCacheMiss.
	Match(ctx context.Context, namespace, url string) (*CachedResponse, error)

	// Delete drops a whole namespace.
	Delete(ctx context.Context, namespace string) error
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s -> %d", e.URL, e.Code)
}
