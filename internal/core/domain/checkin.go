package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidStatus = errors.New("invalid check-in status (must be fasting or not_fasting)")
	ErrInvalidEntry  = errors.New("invalid log entry data")
)

type Status string

const (
	StatusFasting    Status = "fasting"
	StatusNotFasting Status = "not_fasting"
)

// Metadata keys used by the client.
const (
	MetaSubscriptionEndpoint   = "subscriptionEndpoint"
	MetaPushSubscription       = "pushSubscription"
	MetaNotificationPermission = "notificationPermission"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.TrimSpace(s)) {
	case StatusFasting:
		return StatusFasting, nil
	case StatusNotFasting:
		return StatusNotFasting, nil
	}
	return "", ErrInvalidStatus
}

// Label is the wording shown in the log list.
func (s Status) Label() string {
	if s == StatusFasting {
		return "Puasa"
	}
	return "Tidak Puasa"
}

// CheckinMessage is shown right after an answer is saved.
func (s Status) CheckinMessage() string {
	if s == StatusFasting {
		return "Alhamdulillah, semoga istiqamah."
	}
	return "Terima kasih. Catat dan rancang ganti sebelum Ramadan seterusnya."
}

// LogEntry is one day's answer. Date is the unique key.
type LogEntry struct {
	Date      string    `json:"date" db:"date"`
	Status    Status    `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func NewLogEntry(date string, status Status, now time.Time) *LogEntry {
	return &LogEntry{
		Date:      date,
		Status:    status,
		UpdatedAt: now.UTC(),
	}
}

func (e *LogEntry) Validate() error {
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	if e.UpdatedAt.IsZero() {
		return errors.New("updatedAt is required")
	}
	return nil
}

type MetaEntry struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}
