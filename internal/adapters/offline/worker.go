package offline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const (
	CacheVersion = "fasting-pwa-v2"
	ShellAsset   = "./index.html"
)

var DefaultAssets = []string{"./", "./index.html", "./app.js", "./manifest.json"}

type Options struct {
	// Scope is the absolute base URL the worker controls.
	Scope   string
	Version string
	Assets  []string
	Storage domain.CacheStorage

	// Transport reaches the real network. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Worker is the background cache worker. It implements http.RoundTripper so it
// can sit in front of both the client's own requests and proxied browser traffic.
type Worker struct {
	scope   *url.URL
	version string
	assets  []string
	storage domain.CacheStorage
	next    http.RoundTripper
	now     func() time.Time

	active atomic.Bool
}

var _ http.RoundTripper = (*Worker)(nil)

func NewWorker(opts Options) (*Worker, error) {
	scope, err := url.Parse(opts.Scope)
	if err != nil || !scope.IsAbs() || (scope.Scheme != "http" && scope.Scheme != "https") || scope.Host == "" {
		return nil, fmt.Errorf("%w: invalid scope %q", domain.ErrWorkerUnsupported, opts.Scope)
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("%w: no cache storage", domain.ErrWorkerUnsupported)
	}

	if opts.Version == "" {
		opts.Version = CacheVersion
	}
	if opts.Assets == nil {
		opts.Assets = DefaultAssets
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	return &Worker{
		scope:   scope,
		version: opts.Version,
		assets:  opts.Assets,
		storage: opts.Storage,
		next:    opts.Transport,
		now:     time.Now,
	}, nil
}

func (w *Worker) Scope() string   { return w.scope.String() }
func (w *Worker) Version() string { return w.version }
func (w *Worker) Active() bool    { return w.active.Load() }

// Resolve turns a scope-relative reference such as "./index.html" into an absolute URL.
func (w *Worker) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return w.scope.ResolveReference(u).String(), nil
}

// Installed reports whether an earlier run already installed the current version.
// Such a worker is still registered and can activate without the network.
func (w *Worker) Installed(ctx context.Context) (bool, error) {
	keys, err := w.storage.Keys(ctx)
	if err != nil {
		return false, fmt.Errorf("worker: read cache keys: %w", err)
	}
	for _, k := range keys {
		if k == w.version {
			return true, nil
		}
	}
	return false, nil
}

// Register installs the current version when its namespace is missing and then activates.
func (w *Worker) Register(ctx context.Context) error {
	installed, err := w.Installed(ctx)
	if err != nil {
		return err
	}

	if !installed {
		if err := w.Install(ctx); err != nil {
			return err
		}
	}
	return w.Activate(ctx)
}

// Install fetches every asset from the network and writes them in one transaction.
// Any failure leaves the cache untouched.
func (w *Worker) Install(ctx context.Context) error {
	resps := make([]*domain.CachedResponse, 0, len(w.assets))

	for _, asset := range w.assets {
		target, err := w.Resolve(asset)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInstallFailed, asset, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInstallFailed, asset, err)
		}

		resp, err := w.fetch(req)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInstallFailed, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%w: %v", domain.ErrInstallFailed, &domain.StatusError{URL: target, Code: resp.StatusCode})
		}
		resps = append(resps, resp)
	}

	if err := w.storage.PutAll(ctx, w.version, resps); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInstallFailed, err)
	}

	log.Printf("[WORKER] Installed %d assets into %s", len(resps), w.version)
	return nil
}

// Activate deletes every other cache namespace and starts intercepting.
func (w *Worker) Activate(ctx context.Context) error {
	keys, err := w.storage.Keys(ctx)
	if err != nil {
		return fmt.Errorf("worker: read cache keys: %w", err)
	}

	for _, k := range keys {
		if k == w.version {
			continue
		}
		if err := w.storage.Delete(ctx, k); err != nil {
			return fmt.Errorf("worker: delete cache %s: %w", k, err)
		}
		log.Printf("[WORKER] Deleted old cache %s", k)
	}

	w.active.Store(true)
	return nil
}

func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	class := Classify(req, w.scope)
	if !w.Active() || class == ClassPassThrough {
		return w.next.RoundTrip(req)
	}

	ctx := req.Context()
	key := cacheKey(req.URL)

	var out Outcome
	switch class {
	case ClassNavigation:
		network, netErr := w.fetch(req)
		var shell *domain.CachedResponse
		if netErr != nil {
			shell = w.match(ctx, w.mustResolve(ShellAsset))
		}
		out = NavigationOutcome(network, netErr, shell)

	case ClassSameOrigin:
		network, netErr := w.fetch(req)
		var cached *domain.CachedResponse
		if netErr != nil {
			cached = w.match(ctx, key)
		}
		out = SameOriginOutcome(network, netErr, cached)

	case ClassCrossOrigin:
		cached := w.match(ctx, key)
		var network *domain.CachedResponse
		var netErr error
		if cached == nil {
			network, netErr = w.fetch(req)
		}
		out = CrossOriginOutcome(cached, network, netErr)
	}

	if out.Write != nil {
		out.Write.URL = key
		if err := w.storage.Put(ctx, w.version, out.Write); err != nil {
			log.Printf("[WORKER] Cache write for %s failed: %v", key, err)
		}
	}

	if out.Err != nil {
		return nil, out.Err
	}
	return toHTTPResponse(out.Response, req), nil
}

func (w *Worker) mustResolve(ref string) string {
	s, err := w.Resolve(ref)
	if err != nil {
		return ref
	}
	return s
}

func (w *Worker) match(ctx context.Context, key string) *domain.CachedResponse {
	cached, err := w.storage.Match(ctx, w.version, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[WORKER] Cache read for %s failed: %v", key, err)
		}
		return nil
	}
	return cached
}

// fetch performs the network request and buffers the response.
func (w *Worker) fetch(req *http.Request) (*domain.CachedResponse, error) {
	resp, err := w.next.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}

	return &domain.CachedResponse{
		URL:        cacheKey(req.URL),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   w.now().UTC(),
	}, nil
}

func cacheKey(u *url.URL) string {
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	return k.String()
}

func toHTTPResponse(c *domain.CachedResponse, req *http.Request) *http.Response {
	header := c.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Length", strconv.Itoa(len(c.Body)))

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.StatusCode, http.StatusText(c.StatusCode)),
		StatusCode:    c.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}
