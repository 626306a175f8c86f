package services

import (
	"context"
	"fmt"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

// WindowFetcher yields the observance window, fetched fresh on every call.
type WindowFetcher interface {
	RamadanWindow(ctx context.Context) (*domain.RamadanWindow, error)
}

type SummaryService struct {
	windows WindowFetcher
	logRepo domain.LogRepository
}

func NewSummaryService(windows WindowFetcher, logRepo domain.LogRepository) *SummaryService {
	return &SummaryService{
		windows: windows,
		logRepo: logRepo,
	}
}

// Summarize buckets every day of the window against the local logs.
// Unlogged days count towards make-up days just like recorded non-fasting days.
func Summarize(window *domain.RamadanWindow, logs []*domain.LogEntry) (*domain.Summary, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	dates, err := domain.DateRangeInclusive(window.StartDate, window.EndDate)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]domain.Status, len(logs))
	for _, l := range logs {
		byDate[l.Date] = l.Status
	}

	summary := &domain.Summary{
		StartDate: window.StartDate,
		EndDate:   window.EndDate,
		TotalDays: len(dates),
		Stale:     window.Stale,
	}

	for _, d := range dates {
		switch byDate[d] {
		case domain.StatusFasting:
			summary.FastingDays++
		case domain.StatusNotFasting:
			summary.NotFastingDays++
		default:
			summary.NoEntryDays++
		}
	}

	summary.MakeupDaysNeeded = summary.TotalDays - summary.FastingDays

	return summary, nil
}

func (s *SummaryService) Compute(ctx context.Context) (*domain.Summary, error) {
	window, err := s.windows.RamadanWindow(ctx)
	if err != nil {
		return nil, err
	}

	logs, err := s.logRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary service: failed to read logs: %w", err)
	}

	return Summarize(window, logs)
}

// Render never returns partial numbers: any failure replaces the whole text.
func (s *SummaryService) Render(ctx context.Context) string {
	summary, err := s.Compute(ctx)
	if err != nil {
		return fmt.Sprintf("Unable to compute summary: %v", err)
	}
	return summary.Text()
}
