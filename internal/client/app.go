package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/backend"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/offline"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/push"
	"github.com/syaqirshaq/fasting-tracker/internal/adapters/repository"
	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

const (
	defaultCheckinDelay = 500 * time.Millisecond

	checkinInstructions = "Pilih salah satu jawapan untuk simpan log harian anda."
	noLogsText          = "No logs yet."
)

var checkinAnswers = []domain.Status{domain.StatusFasting, domain.StatusNotFasting}

type Options struct {
	Config   Config
	Out      io.Writer
	Prompter Prompter

	// Transport is the network below the background worker. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// App holds everything one client run needs. Boot must succeed before any
// other method is used.
type App struct {
	cfg       Config
	out       io.Writer
	prompter  Prompter
	transport http.RoundTripper

	db       *sqlx.DB
	logs     domain.LogRepository
	meta     domain.MetaRepository
	worker   *offline.Worker
	backend  *backend.Client
	platform *push.LocalPlatform

	session *services.Session
	checkin *services.CheckinService
	summary *services.SummaryService
	push    *services.PushService

	mu           sync.Mutex
	route        Route
	checkinDelay time.Duration
}

func New(opts Options) *App {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &App{
		cfg:          opts.Config,
		out:          out,
		prompter:     opts.Prompter,
		transport:    opts.Transport,
		checkinDelay: defaultCheckinDelay,
	}
}

// Boot runs the startup sequence and dispatches route. A failure at any step
// stops the sequence and is reported on the status line.
func (a *App) Boot(ctx context.Context, route Route) error {
	if err := a.boot(ctx, route); err != nil {
		a.setStatus("Error: " + statusMessage(err))
		return err
	}
	a.setStatus("Ready. Backend: " + a.backend.Base())
	return nil
}

func (a *App) boot(ctx context.Context, route Route) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	a.session = &services.Session{Location: loc}

	if err := a.openStores(ctx); err != nil {
		return err
	}
	if err := a.loadSavedMeta(ctx); err != nil {
		return err
	}

	base, err := backend.ResolveBase(a.cfg.BackendBase, a.cfg.AppURL)
	if err != nil {
		return err
	}

	a.worker, err = offline.NewWorker(offline.Options{
		Scope:     a.cfg.AppURL,
		Storage:   repository.NewSQLiteCacheStorage(a.db),
		Transport: a.transport,
	})
	if err != nil {
		return err
	}

	// Requests pass straight through the worker until it is activated.
	a.backend = backend.NewClient(base, a.worker)
	a.platform = push.NewLocalPlatform(a.meta, a.cfg.Receiver(), a.prompter)
	a.checkin = services.NewCheckinService(a.logs, a.backend)
	a.summary = services.NewSummaryService(a.backend, a.logs)
	a.push = services.NewPushService(a.platform, a.meta, a.backend)

	// A worker installed by an earlier run is still registered, so it controls
	// this run from the start and can answer the config request offline.
	installed, err := a.worker.Installed(ctx)
	if err != nil {
		return err
	}
	if installed {
		if err := a.worker.Register(ctx); err != nil {
			return err
		}
	}

	remote, err := a.backend.Config(ctx)
	if err != nil {
		return err
	}
	a.session.VAPIDPublicKey = remote.VAPIDPublicKey

	if !installed {
		if err := a.worker.Register(ctx); err != nil {
			return err
		}
		// First controlled request, so the next run finds the config cached.
		if _, err := a.backend.Config(ctx); err != nil {
			log.Printf("[WORKER] Config warm-up failed: %v", err)
		}
	}

	if err := a.RenderLogs(ctx); err != nil {
		return err
	}
	return a.renderRoute(ctx, route)
}

func (a *App) openStores(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	if a.cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := repository.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		return err
	}
	a.db = db
	a.logs = repository.NewSQLiteLogRepository(db)
	a.meta = repository.NewSQLiteMetaRepository(db)
	return nil
}

func (a *App) loadSavedMeta(ctx context.Context) error {
	endpoint, ok, err := a.meta.Get(ctx, domain.MetaSubscriptionEndpoint)
	if err != nil {
		return err
	}
	if ok {
		a.session.SubscriptionEndpoint = endpoint
	}
	return nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Route() Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) setRoute(r Route) {
	a.mu.Lock()
	a.route = r
	a.mu.Unlock()
}

func (a *App) setStatus(text string) {
	fmt.Fprintf(a.out, "Status: %s\n", text)
}

// statusMessage is the status line wording for a failed step. Backend rejections
// show their status code.
func statusMessage(err error) string {
	var se *domain.StatusError
	if errors.As(err, &se) {
		switch {
		case errors.Is(err, backend.ErrConfigUnavailable):
			return fmt.Sprintf("Cannot load backend config (%d).", se.Code)
		case errors.Is(err, services.ErrSubscribeFailed):
			return fmt.Sprintf("Subscribe failed (%d).", se.Code)
		}
	}
	return err.Error()
}

func (a *App) renderRoute(ctx context.Context, route Route) error {
	a.setRoute(route)

	switch route.View {
	case ViewCheckin:
		fmt.Fprintf(a.out, "Adakah anda berpuasa pada %s?\n", a.checkinDate())
		fmt.Fprintln(a.out, checkinInstructions)
	case ViewSummary:
		a.RenderSummary(ctx)
	}
	return nil
}

func (a *App) checkinDate() string {
	return a.session.DateOrToday(a.Route().Date, time.Now())
}

// RenderLogs prints every log entry, most recent first.
func (a *App) RenderLogs(ctx context.Context) error {
	logs, err := a.checkin.ListLogs(ctx)
	if err != nil {
		return err
	}
	a.printLogs(logs)
	return nil
}

func (a *App) printLogs(logs []*domain.LogEntry) {
	fmt.Fprintln(a.out, "Logs:")
	if len(logs) == 0 {
		fmt.Fprintf(a.out, "  %s\n", noLogsText)
		return
	}
	for _, l := range logs {
		fmt.Fprintf(a.out, "  %s - %s\n", l.Date, l.Status.Label())
	}
}

// PromptCheckin asks for today's (or the routed date's) answer and records it.
func (a *App) PromptCheckin(ctx context.Context) error {
	if a.prompter == nil {
		return fmt.Errorf("no terminal available, pass --answer instead")
	}

	labels := make([]string, len(checkinAnswers))
	for i, s := range checkinAnswers {
		labels[i] = s.Label()
	}

	idx, err := a.prompter.Choose(ctx, fmt.Sprintf("Adakah anda berpuasa pada %s?", a.checkinDate()), labels)
	if err != nil {
		return err
	}
	return a.AnswerCheckin(ctx, string(checkinAnswers[idx]))
}

// AnswerCheckin saves the answer for the routed date, relays it when subscribed,
// then returns home after a short pause.
func (a *App) AnswerCheckin(ctx context.Context, answer string) error {
	result, err := a.checkin.Answer(ctx, a.session, services.CheckinInput{
		Date:   a.Route().Date,
		Answer: answer,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, result.Message)
	a.printLogs(result.Logs)

	timer := time.NewTimer(a.checkinDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	a.setRoute(Route{View: ViewHome})
	return nil
}

// RenderSummary prints the summary sentence set, or the failure line.
func (a *App) RenderSummary(ctx context.Context) {
	fmt.Fprintln(a.out, a.summary.Render(ctx))
}

// EnablePush runs the subscription flow and reports the outcome on the status line.
func (a *App) EnablePush(ctx context.Context) error {
	status, err := a.push.Enable(ctx, a.session)
	if err != nil {
		a.setStatus("Error: " + statusMessage(err))
		return err
	}
	a.setStatus(status)
	return nil
}
