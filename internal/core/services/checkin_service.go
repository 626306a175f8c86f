package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

// CheckinRelayer forwards an answer to the backend.
type CheckinRelayer interface {
	Checkin(ctx context.Context, relay domain.CheckinRelay) error
}

type CheckinService struct {
	logRepo domain.LogRepository
	relay   CheckinRelayer
	now     func() time.Time
}

func NewCheckinService(logRepo domain.LogRepository, relay CheckinRelayer) *CheckinService {
	return &CheckinService{
		logRepo: logRepo,
		relay:   relay,
		now:     time.Now,
	}
}

type CheckinInput struct {
	Date   string
	Answer string
}

type CheckinResult struct {
	Entry   *domain.LogEntry
	Message string
	Logs    []*domain.LogEntry
	Relayed bool
}

func (s *CheckinService) Answer(ctx context.Context, sess *Session, input CheckinInput) (*CheckinResult, error) {
	status, err := domain.ParseStatus(input.Answer)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := domain.NewLogEntry(sess.DateOrToday(input.Date, now), status, now)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.logRepo.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("checkin service: failed to save log: %w", err)
	}

	// The answer is already stored, so a failed refresh only leaves the list empty.
	logs, err := s.ListLogs(ctx)
	if err != nil {
		log.Printf("[CHECKIN] Log refresh after saving %s failed: %v", entry.Date, err)
	}

	result := &CheckinResult{
		Entry:   entry,
		Message: status.CheckinMessage(),
		Logs:    logs,
	}

	if sess.SubscriptionEndpoint != "" && s.relay != nil {
		relay := domain.CheckinRelay{
			Endpoint: sess.SubscriptionEndpoint,
			Date:     entry.Date,
			Status:   entry.Status,
		}
		// Best effort: a failed relay is logged and dropped.
		if err := s.relay.Checkin(ctx, relay); err != nil {
			log.Printf("[CHECKIN] Relay for %s failed (not retried): %v", entry.Date, err)
		} else {
			result.Relayed = true
		}
	}

	return result, nil
}

// ListLogs returns all entries, most recent date first.
func (s *CheckinService) ListLogs(ctx context.Context) ([]*domain.LogEntry, error) {
	logs, err := s.logRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkin service: failed to read logs: %w", err)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date > logs[j].Date
	})

	return logs, nil
}
