package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/require"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var shellBody = []byte("<!doctype html><title>Fasting Tracker</title>")

// fakeOrigin serves the app shell and the backend API from one server, the
// way a deployment behind a single origin does.
type fakeOrigin struct {
	srv        *httptest.Server
	vapidPub   string
	vapidPriv  string
	configCode    int
	subscribeCode int
	window        domain.RamadanWindow

	mu         sync.Mutex
	subscribed []*domain.Subscription
	checkins   []domain.CheckinRelay
}

func newFakeOrigin(t *testing.T) *fakeOrigin {
	t.Helper()

	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	o := &fakeOrigin{
		vapidPub:      pub,
		vapidPriv:     priv,
		configCode:    http.StatusOK,
		subscribeCode: http.StatusOK,
		window:        domain.RamadanWindow{StartDate: "2026-02-18", EndDate: "2026-02-20"},
	}

	mux := http.NewServeMux()
	for _, asset := range []string{"/", "/index.html", "/app.js", "/manifest.json"} {
		mux.HandleFunc("GET "+asset, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != asset {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write(shellBody)
		})
	}
	mux.HandleFunc("GET /api/config", func(w http.ResponseWriter, r *http.Request) {
		if o.configCode != http.StatusOK {
			w.WriteHeader(o.configCode)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.RemoteConfig{Timezone: DefaultTimezone, VAPIDPublicKey: o.vapidPub})
	})
	mux.HandleFunc("GET /api/ramadan-window", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(o.window)
	})
	mux.HandleFunc("POST /api/subscribe", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Subscription *domain.Subscription `json:"subscription"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Subscription == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if o.subscribeCode != http.StatusOK {
			w.WriteHeader(o.subscribeCode)
			return
		}
		o.mu.Lock()
		o.subscribed = append(o.subscribed, body.Subscription)
		o.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("POST /api/checkin", func(w http.ResponseWriter, r *http.Request) {
		var relay domain.CheckinRelay
		_ = json.NewDecoder(r.Body).Decode(&relay)
		o.mu.Lock()
		o.checkins = append(o.checkins, relay)
		o.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	o.srv = httptest.NewServer(mux)
	t.Cleanup(o.srv.Close)
	return o
}

func (o *fakeOrigin) appURL() string { return o.srv.URL + "/" }

func (o *fakeOrigin) Checkins() []domain.CheckinRelay {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.CheckinRelay(nil), o.checkins...)
}

func (o *fakeOrigin) Subscriptions() []*domain.Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*domain.Subscription(nil), o.subscribed...)
}

// switchableTransport fails every request while offline is set.
type switchableTransport struct {
	offline atomic.Bool
}

func (s *switchableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if s.offline.Load() {
		return nil, errors.New("dial tcp: network is unreachable")
	}
	return http.DefaultTransport.RoundTrip(req)
}

type scriptedPrompter struct {
	confirm bool
	choice  int
	err     error

	mu    sync.Mutex
	asked []string
}

func (p *scriptedPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	p.asked = append(p.asked, question)
	p.mu.Unlock()
	return p.confirm, p.err
}

func (p *scriptedPrompter) Choose(ctx context.Context, question string, options []string) (int, error) {
	p.mu.Lock()
	p.asked = append(p.asked, question)
	p.mu.Unlock()
	return p.choice, p.err
}

// syncBuffer is a bytes.Buffer safe for the server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(appURL string) Config {
	return Config{
		AppURL:   appURL,
		Timezone: DefaultTimezone,
		DBPath:   ":memory:",
		Listen:   "127.0.0.1:0",
	}
}
