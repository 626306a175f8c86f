package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const (
	DefaultNotificationTitle = "Fasting Tracker"
	DefaultNotificationBody  = "Sila semak aplikasi."
	DefaultNotificationTag   = "fasting-pwa-notification"
	DefaultNotificationURL   = "./"
)

// Notification is what the worker shows for a push message.
type Notification struct {
	Title    string
	Body     string
	Tag      string
	Renotify bool
	URL      string
}

// HandlePush decodes a push payload and fills in defaults for missing fields.
// An empty payload yields the default notification.
func HandlePush(data []byte) (*Notification, error) {
	var payload domain.PushPayload
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("worker: invalid push payload: %w", err)
		}
	}

	n := &Notification{
		Title:    payload.Title,
		Body:     payload.Body,
		Tag:      payload.Tag,
		Renotify: true,
		URL:      payload.URL,
	}
	if n.Title == "" {
		n.Title = DefaultNotificationTitle
	}
	if n.Body == "" {
		n.Body = DefaultNotificationBody
	}
	if n.Tag == "" {
		n.Tag = DefaultNotificationTag
	}
	if n.URL == "" {
		n.URL = DefaultNotificationURL
	}
	return n, nil
}

// Client is an open window the worker can focus and navigate.
type Client interface {
	URL() string
	Focus(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
}

type Clients interface {
	MatchAll(ctx context.Context) ([]Client, error)
	OpenWindow(ctx context.Context, url string) error
}

// NotificationClick resolves the notification target against the scope and routes
// it to the first client inside the scope, or opens a new window. Returns the target.
func (w *Worker) NotificationClick(ctx context.Context, n *Notification, clients Clients) (string, error) {
	ref := DefaultNotificationURL
	if n != nil && n.URL != "" {
		ref = n.URL
	}

	target, err := w.Resolve(ref)
	if err != nil {
		return "", fmt.Errorf("worker: invalid notification url %q: %w", ref, err)
	}

	list, err := clients.MatchAll(ctx)
	if err != nil {
		return "", fmt.Errorf("worker: list clients: %w", err)
	}

	scope := w.Scope()
	for _, c := range list {
		if !strings.HasPrefix(c.URL(), scope) {
			continue
		}
		if err := c.Focus(ctx); err != nil {
			log.Printf("[WORKER] Focus failed: %v", err)
		}
		return target, c.Navigate(ctx, target)
	}

	return target, clients.OpenWindow(ctx, target)
}
