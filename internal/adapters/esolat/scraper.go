package esolat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const DefaultURL = "https://www.e-solat.gov.my/index.php?pageId=26&siteId=24"

var ErrNoRamadanDates = errors.New("unable to parse Ramadan dates from e-Solat page")

var (
	ramadanPattern = regexp.MustCompile(`(?i)ramad(?:an|han)`)
	dateToken      = regexp.MustCompile(`\d{1,4}[/-]\d{1,2}[/-]\d{1,4}`)
	dateLayouts    = []string{"2/1/2006", "2-1-2006", "2006-1-2"}
)

var _ domain.WindowSource = (*Source)(nil)

// Source scrapes the JAKIM e-Solat calendar page for the Ramadan window.
type Source struct {
	url  string
	http *http.Client
	now  func() time.Time
}

func NewSource(url string, client *http.Client) *Source {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{url: url, http: client, now: time.Now}
}

func (s *Source) Fetch(ctx context.Context, year int) (*domain.RamadanWindow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esolat: fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.StatusError{URL: s.url, Code: resp.StatusCode}
	}

	start, end, err := ExtractWindow(resp.Body, year)
	if err != nil {
		return nil, err
	}

	return &domain.RamadanWindow{
		StartDate: domain.FormatDate(start),
		EndDate:   domain.FormatDate(end),
		FetchedAt: s.now().UTC(),
		SourceURL: s.url,
	}, nil
}

// ExtractWindow returns the earliest and latest dates of the target year found in
// table rows mentioning Ramadan. When no row matches it falls back to text lines.
func ExtractWindow(r io.Reader, year int) (time.Time, time.Time, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("esolat: parse html: %w", err)
	}

	var dates []time.Time
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		text := strings.Join(strippedStrings(row.Nodes), " ")
		if ramadanPattern.MatchString(text) {
			dates = append(dates, collectDates(text, year)...)
		}
	})

	if len(dates) == 0 {
		for _, s := range strippedStrings(doc.Nodes) {
			for _, line := range strings.Split(s, "\n") {
				if ramadanPattern.MatchString(line) {
					dates = append(dates, collectDates(line, year)...)
				}
			}
		}
	}

	if len(dates) == 0 {
		return time.Time{}, time.Time{}, ErrNoRamadanDates
	}

	start, end := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end, nil
}

func collectDates(text string, year int) []time.Time {
	var out []time.Time
	for _, token := range dateToken.FindAllString(text, -1) {
		if d, ok := parseDateToken(token); ok && d.Year() == year {
			out = append(out, d)
		}
	}
	return out
}

func parseDateToken(token string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, strings.TrimSpace(token)); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// strippedStrings returns every non-blank text node below nodes, trimmed, in document order.
func strippedStrings(nodes []*html.Node) []string {
	var out []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range nodes {
		walk(n)
	}
	return out
}
