package services

import (
	"context"
	"fmt"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

type SubscriptionService struct {
	repo domain.SubscriptionRepository
}

func NewSubscriptionService(repo domain.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
	}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, sub *domain.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("subscription service: failed to save subscription: %w", err)
	}
	return nil
}

// RecordCheckin marks the endpoint as answered for the date so reminders stop for that day.
func (s *SubscriptionService) RecordCheckin(ctx context.Context, relay domain.CheckinRelay) error {
	if _, err := domain.ParseDate(relay.Date); err != nil {
		return err
	}
	if _, err := domain.ParseStatus(string(relay.Status)); err != nil {
		return err
	}

	return s.repo.MarkAnswered(ctx, relay.Endpoint, relay.Date)
}
