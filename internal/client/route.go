package client

import (
	"fmt"
	"net/url"
	"strings"
)

type View string

const (
	ViewHome    View = "home"
	ViewCheckin View = "checkin"
	ViewSummary View = "summary"
)

type Route struct {
	View View
	// Date is the check-in date from the URL, empty for "today".
	Date string
}

// ParseRoute reads the view from the `view` query parameter, then from a
// /checkin or /summary path suffix. Anything else is home.
func ParseRoute(raw string) (Route, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Route{}, fmt.Errorf("invalid route %q: %w", raw, err)
	}

	q := u.Query()
	r := Route{View: ViewHome, Date: q.Get("date")}

	switch v := View(q.Get("view")); v {
	case ViewCheckin, ViewSummary:
		r.View = v
		return r, nil
	}

	switch {
	case strings.HasSuffix(u.Path, "/checkin"):
		r.View = ViewCheckin
	case strings.HasSuffix(u.Path, "/summary"):
		r.View = ViewSummary
	}
	return r, nil
}

// URL renders the route relative to base, the way notifications link to it.
func (r Route) URL(base string) string {
	base = strings.TrimSuffix(base, "/") + "/"
	if r.View == ViewHome || r.View == "" {
		return base
	}

	q := url.Values{"view": {string(r.View)}}
	if r.Date != "" {
		q.Set("date", r.Date)
	}
	return base + "?" + q.Encode()
}
