package workers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const DefaultReminderInterval = 10 * time.Minute

type SubscriptionLister interface {
	List(ctx context.Context) ([]*domain.SubscriptionRecord, error)
}

type WindowProvider interface {
	Window(ctx context.Context) (*domain.RamadanWindow, error)
}

type PushSender interface {
	SendBatch(ctx context.Context, subs []*domain.SubscriptionRecord, payload domain.PushPayload) domain.SendReport
}

type ReminderJob string

const (
	JobCheckin ReminderJob = "checkin"
	JobSummary ReminderJob = "summary"
	JobAll     ReminderJob = "all"
)

type checkinWindow struct {
	startH, startM int
	endH, endM     int
}

// Check-in reminders only go out inside these local-time ranges, ends inclusive.
var checkinWindows = []checkinWindow{
	{8, 0, 11, 0},
	{13, 0, 16, 0},
	{17, 0, 19, 30},
}

// ReminderWorker sends check-in and post-Ramadan summary reminders on a
// wall-clock aligned schedule. Jobs can also be queued on demand.
type ReminderWorker struct {
	subs     SubscriptionLister
	windows  WindowProvider
	sender   PushSender
	frontend string
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
	jobs     chan ReminderJob
}

func NewReminderWorker(subs SubscriptionLister, windows WindowProvider, sender PushSender, frontendBaseURL string, loc *time.Location) *ReminderWorker {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderWorker{
		subs:     subs,
		windows:  windows,
		sender:   sender,
		frontend: strings.TrimSuffix(frontendBaseURL, "/"),
		loc:      loc,
		interval: DefaultReminderInterval,
		now:      time.Now,
		jobs:     make(chan ReminderJob, 10),
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	go func() {
		log.Println("[REMINDER] Worker started in background...")

		timer := time.NewTimer(time.Until(nextBoundary(time.Now(), w.interval)))
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				w.runAll(ctx)
				timer.Reset(time.Until(nextBoundary(time.Now(), w.interval)))
			case job := <-w.jobs:
				w.process(ctx, job)
			case <-ctx.Done():
				log.Println("[REMINDER] Worker shutting down...")
				return
			}
		}
	}()
}

// Enqueue queues a job without blocking. It reports false when the queue is full.
func (w *ReminderWorker) Enqueue(job ReminderJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		log.Printf("[REMINDER] Queue full! Dropping %s job", job)
		return false
	}
}

func (w *ReminderWorker) process(ctx context.Context, job ReminderJob) {
	switch job {
	case JobCheckin:
		w.RunCheckinJob(ctx, w.now())
	case JobSummary:
		w.RunSummaryJob(ctx, w.now())
	default:
		w.runAll(ctx)
	}
}

func (w *ReminderWorker) runAll(ctx context.Context) {
	now := w.now()
	w.RunCheckinJob(ctx, now)
	w.RunSummaryJob(ctx, now)
}

// RunCheckinJob reminds every subscription that has not answered today.
// It reports whether a batch was sent.
func (w *ReminderWorker) RunCheckinJob(ctx context.Context, now time.Time) (domain.SendReport, bool) {
	local := now.In(w.loc)
	if !insideCheckinWindow(local) {
		return domain.SendReport{}, false
	}

	today := domain.Today(local, w.loc)
	subs, err := w.subs.List(ctx)
	if err != nil {
		log.Printf("[REMINDER] Failed to list subscriptions: %v", err)
		return domain.SendReport{}, false
	}

	pending := make([]*domain.SubscriptionRecord, 0, len(subs))
	for _, s := range subs {
		if !s.AnsweredOn(today) {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return domain.SendReport{}, false
	}

	report := w.sender.SendBatch(ctx, pending, domain.PushPayload{
		Title: "Check-in puasa",
		Body:  "Sudah jawab check-in puasa hari ini?",
		URL:   fmt.Sprintf("%s/?view=checkin&date=%s", w.frontend, today),
		Tag:   "checkin-" + today,
	})
	log.Printf("[REMINDER] Check-in %s: %d sent, %d failed", today, report.Success, report.Failed)
	return report, true
}

// RunSummaryJob sends the summary prompt once, in the interval starting 72 hours
// after the last day of the window ends.
func (w *ReminderWorker) RunSummaryJob(ctx context.Context, now time.Time) (domain.SendReport, bool) {
	window, err := w.windows.Window(ctx)
	if err != nil {
		log.Printf("[REMINDER] Ramadan window unavailable: %v", err)
		return domain.SendReport{}, false
	}

	due, err := summaryDue(window.EndDate, w.loc)
	if err != nil {
		log.Printf("[REMINDER] Bad window end date: %v", err)
		return domain.SendReport{}, false
	}
	if now.Before(due) || !now.Before(due.Add(w.interval)) {
		return domain.SendReport{}, false
	}

	subs, err := w.subs.List(ctx)
	if err != nil {
		log.Printf("[REMINDER] Failed to list subscriptions: %v", err)
		return domain.SendReport{}, false
	}
	if len(subs) == 0 {
		return domain.SendReport{}, false
	}

	report := w.sender.SendBatch(ctx, subs, domain.PushPayload{
		Title: "Ringkasan Ramadan",
		Body:  "Semak ringkasan puasa anda dan rancang ganti sebelum Ramadan seterusnya.",
		URL:   w.frontend + "/?view=summary",
		Tag:   "summary-" + window.EndDate,
	})
	log.Printf("[REMINDER] Summary for %s: %d sent, %d failed", window.EndDate, report.Success, report.Failed)
	return report, true
}

func summaryDue(endDate string, loc *time.Location) (time.Time, error) {
	end, err := time.ParseInLocation(domain.DateLayout, endDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, endDate)
	}
	lastSecond := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, loc)
	return lastSecond.Add(72 * time.Hour), nil
}

func insideCheckinWindow(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	exact := t.Second() == 0 && t.Nanosecond() == 0

	for _, cw := range checkinWindows {
		start := cw.startH*60 + cw.startM
		end := cw.endH*60 + cw.endM
		if minutes >= start && (minutes < end || (minutes == end && exact)) {
			return true
		}
	}
	return false
}

// nextBoundary returns the next wall-clock multiple of interval after now.
func nextBoundary(now time.Time, interval time.Duration) time.Time {
	next := now.Truncate(interval)
	if !next.After(now) {
		next = next.Add(interval)
	}
	return next
}
