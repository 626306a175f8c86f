package offline

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

// RequestClass selects which cache policy handles a request.
type RequestClass int

const (
	ClassPassThrough RequestClass = iota
	ClassNavigation
	ClassSameOrigin
	ClassCrossOrigin
)

func (c RequestClass) String() string {
	switch c {
	case ClassNavigation:
		return "navigation"
	case ClassSameOrigin:
		return "same-origin"
	case ClassCrossOrigin:
		return "cross-origin"
	}
	return "pass-through"
}

// Classify maps a request to its policy. Only GET requests are ever intercepted.
func Classify(req *http.Request, scope *url.URL) RequestClass {
	if req.Method != http.MethodGet && req.Method != "" {
		return ClassPassThrough
	}
	if strings.EqualFold(req.Header.Get("Sec-Fetch-Mode"), "navigate") {
		return ClassNavigation
	}
	if sameOrigin(req.URL, scope) {
		return ClassSameOrigin
	}
	return ClassCrossOrigin
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(originHost(a), originHost(b))
}

func originHost(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return u.Hostname() + ":" + port
}

// Outcome is what a policy decided: the response to serve (or the error to
// propagate) and an optional copy to write into the cache.
type Outcome struct {
	Response *domain.CachedResponse
	Write    *domain.CachedResponse
	Err      error
}

// NavigationOutcome is network first with the cached shell as the only fallback.
func NavigationOutcome(network *domain.CachedResponse, netErr error, shell *domain.CachedResponse) Outcome {
	if netErr == nil {
		return Outcome{Response: network}
	}
	if shell != nil {
		return Outcome{Response: shell}
	}
	return Outcome{Err: netErr}
}

// SameOriginOutcome is network first. A network response is cached as an
// independent copy; on failure the cached copy for the same URL is served.
func SameOriginOutcome(network *domain.CachedResponse, netErr error, cached *domain.CachedResponse) Outcome {
	if netErr == nil {
		out := Outcome{Response: network}
		if network.StatusCode != http.StatusPartialContent {
			out.Write = network.Clone()
		}
		return out
	}
	if cached != nil {
		return Outcome{Response: cached}
	}
	return Outcome{Err: netErr}
}

// CrossOriginOutcome is cache first. The network result is only consulted on a
// miss and is never written back.
func CrossOriginOutcome(cached *domain.CachedResponse, network *domain.CachedResponse, netErr error) Outcome {
	if cached != nil {
		return Outcome{Response: cached}
	}
	if netErr != nil {
		return Outcome{Err: netErr}
	}
	return Outcome{Response: network}
}
