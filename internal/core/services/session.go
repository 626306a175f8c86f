package services

import (
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

// Session is the client state shared by the check-in and push flows for one run.
// It is created at boot and passed by reference.
type Session struct {
	SubscriptionEndpoint string
	VAPIDPublicKey       string
	Location             *time.Location
}

// DateOrToday returns date when set, otherwise today in the session timezone.
func (s *Session) DateOrToday(date string, now time.Time) string {
	if date != "" {
		return date
	}
	return domain.Today(now, s.Location)
}
