package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrWindowUnavailable = errors.New("ramadan window unavailable")

const StaleWindowNotice = "Nota: Data Ramadan menggunakan cache lama sementara backend gagal refresh."

type RamadanWindow struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
	SourceURL string    `json:"source_url,omitempty"`
	Stale     bool      `json:"stale"`
}

func (w *RamadanWindow) Validate() error {
	if w == nil {
		return ErrWindowUnavailable
	}
	if _, err := ParseDate(w.StartDate); err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	if _, err := ParseDate(w.EndDate); err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	return nil
}

// Summary buckets every day of the window into exactly one of
// Fasting, NotFasting or NoEntry.
type Summary struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	TotalDays        int    `json:"total_days"`
	FastingDays      int    `json:"fasting_days"`
	NotFastingDays   int    `json:"not_fasting_days"`
	NoEntryDays      int    `json:"no_entry_days"`
	MakeupDaysNeeded int    `json:"makeup_days_needed"`
	Stale            bool   `json:"stale"`
}

func (s *Summary) Text() string {
	parts := []string{
		fmt.Sprintf("Ramadan window: %s to %s.", s.StartDate, s.EndDate),
		fmt.Sprintf("Total days: %d.", s.TotalDays),
		fmt.Sprintf("Puasa penuh: %d hari.", s.FastingDays),
		fmt.Sprintf("Tidak puasa: %d hari.", s.NotFastingDays),
		fmt.Sprintf("Tiada log: %d hari.", s.NoEntryDays),
		fmt.Sprintf("Cadangan ganti: %d hari sebelum Ramadan seterusnya.", s.MakeupDaysNeeded),
	}
	if s.Stale {
		parts = append(parts, StaleWindowNotice)
	}
	return strings.Join(parts, " ")
}
