package offline

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

func resp(url string, code int, body string) *domain.CachedResponse {
	return &domain.CachedResponse{URL: url, StatusCode: code, Header: http.Header{}, Body: []byte(body)}
}

func TestClassify(t *testing.T) {
	scope, _ := url.Parse("http://localhost:8080/")

	tests := []struct {
		name   string
		method string
		target string
		mode   string
		want   RequestClass
	}{
		{"POST passes through", http.MethodPost, "http://localhost:8080/api/checkin", "", ClassPassThrough},
		{"Navigation", http.MethodGet, "http://localhost:8080/?view=summary", "navigate", ClassNavigation},
		{"Same origin asset", http.MethodGet, "http://localhost:8080/app.js", "", ClassSameOrigin},
		{"Other port", http.MethodGet, "http://localhost:80/x", "", ClassCrossOrigin},
		{"Other host", http.MethodGet, "https://api.syaqirshaq.online/api/config", "", ClassCrossOrigin},
		{"Other scheme", http.MethodGet, "https://localhost:8080/app.js", "", ClassCrossOrigin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, tt.target, nil)
			require.NoError(t, err)
			if tt.mode != "" {
				req.Header.Set("Sec-Fetch-Mode", tt.mode)
			}
			assert.Equal(t, tt.want, Classify(req, scope), tt.want.String())
		})
	}
}

func TestNavigationOutcome(t *testing.T) {
	shell := resp("http://localhost:8080/index.html", 200, "shell")
	netErr := errors.New("offline")

	t.Run("Network response wins", func(t *testing.T) {
		page := resp("http://localhost:8080/?view=checkin", 200, "live")
		out := NavigationOutcome(page, nil, shell)
		assert.Same(t, page, out.Response)
		assert.Nil(t, out.Write)
	})

	t.Run("Offline serves the shell", func(t *testing.T) {
		out := NavigationOutcome(nil, netErr, shell)
		assert.Same(t, shell, out.Response)
		assert.NoError(t, out.Err)
	})

	t.Run("Offline without shell propagates", func(t *testing.T) {
		out := NavigationOutcome(nil, netErr, nil)
		assert.Nil(t, out.Response)
		assert.ErrorIs(t, out.Err, netErr)
	})
}

func TestSameOriginOutcome(t *testing.T) {
	netErr := errors.New("offline")

	t.Run("Success writes an independent copy", func(t *testing.T) {
		live := resp("http://localhost:8080/app.js", 200, "console.log(1)")
		out := SameOriginOutcome(live, nil, nil)

		require.NotNil(t, out.Write)
		assert.Same(t, live, out.Response)
		assert.Equal(t, live.Body, out.Write.Body)

		out.Write.Body[0] = 'X'
		assert.Equal(t, "console.log(1)", string(live.Body))
	})

	t.Run("Partial content is not cached", func(t *testing.T) {
		out := SameOriginOutcome(resp("http://localhost:8080/a", http.StatusPartialContent, "p"), nil, nil)
		assert.Nil(t, out.Write)
	})

	t.Run("Server errors are still network responses", func(t *testing.T) {
		out := SameOriginOutcome(resp("http://localhost:8080/a", 500, "boom"), nil, resp("http://localhost:8080/a", 200, "old"))
		assert.Equal(t, 500, out.Response.StatusCode)
	})

	t.Run("Failure falls back to the cache", func(t *testing.T) {
		cached := resp("http://localhost:8080/app.js", 200, "old")
		out := SameOriginOutcome(nil, netErr, cached)
		assert.Same(t, cached, out.Response)
		assert.Nil(t, out.Write)
	})

	t.Run("Failure with a miss propagates", func(t *testing.T) {
		out := SameOriginOutcome(nil, netErr, nil)
		assert.ErrorIs(t, out.Err, netErr)
	})
}

func TestCrossOriginOutcome(t *testing.T) {
	cached := resp("https://cdn.example/lib.js", 200, "cached")
	live := resp("https://cdn.example/lib.js", 200, "live")

	assert.Same(t, cached, CrossOriginOutcome(cached, nil, nil).Response)

	out := CrossOriginOutcome(nil, live, nil)
	assert.Same(t, live, out.Response)
	assert.Nil(t, out.Write)

	assert.Error(t, CrossOriginOutcome(nil, nil, errors.New("offline")).Err)
}
