package domain

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date (expected YYYY-MM-DD)")

// ParseDate returns the calendar day at noon UTC so that day arithmetic never
// crosses a date boundary because of offsets or daylight saving.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Add(12 * time.Hour), nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DateRangeInclusive lists every calendar day from start to end, both included.
// An inverted range yields an empty list.
func DateRangeInclusive(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}

	dates := []string{}
	for cursor := from; !cursor.After(to); cursor = cursor.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(cursor))
	}
	return dates, nil
}

// Today is the calendar date of now as seen in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}
