package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

// DefaultTTL is how long the push service keeps an undelivered message, in seconds.
const DefaultTTL = 300

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	// Subject is a mailto: or https: contact for the push service operator.
	Subject string
}

// WebPushSender delivers payloads with VAPID and prunes subscriptions the push
// service reports as gone.
type WebPushSender struct {
	repo domain.SubscriptionRepository
	opts webpush.Options
}

func NewWebPushSender(repo domain.SubscriptionRepository, cfg VAPIDConfig, client *http.Client) *WebPushSender {
	opts := webpush.Options{
		// webpush-go adds the mailto: scheme itself.
		Subscriber:      strings.TrimPrefix(cfg.Subject, "mailto:"),
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		TTL:             DefaultTTL,
	}
	if client != nil {
		opts.HTTPClient = client
	}

	return &WebPushSender{repo: repo, opts: opts}
}

// GoneError reports a subscription the push service no longer accepts.
type GoneError struct {
	Endpoint string
	Code     int
}

func (e *GoneError) Error() string {
	return fmt.Sprintf("push endpoint gone (%d): %s", e.Code, e.Endpoint)
}

func (s *WebPushSender) Send(ctx context.Context, rec *domain.SubscriptionRecord, payload domain.PushPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notifier: encode payload: %w", err)
	}

	sub := &webpush.Subscription{
		Endpoint: rec.Endpoint,
		Keys: webpush.Keys{
			P256dh: rec.P256dh,
			Auth:   rec.Auth,
		},
	}

	opts := s.opts
	resp, err := webpush.SendNotificationWithContext(ctx, data, sub, &opts)
	if err != nil {
		return fmt.Errorf("notifier: send to %s: %w", rec.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return &GoneError{Endpoint: rec.Endpoint, Code: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &domain.StatusError{URL: rec.Endpoint, Code: resp.StatusCode}
	}
	return nil
}

// SendBatch sends the payload to every subscription serially. Failures are counted,
// never retried; gone endpoints are deleted.
func (s *WebPushSender) SendBatch(ctx context.Context, subs []*domain.SubscriptionRecord, payload domain.PushPayload) domain.SendReport {
	var report domain.SendReport

	for _, rec := range subs {
		err := s.Send(ctx, rec, payload)
		if err == nil {
			report.Success++
			continue
		}

		report.Failed++
		log.Printf("[PUSH] %v", err)

		var gone *GoneError
		if errors.As(err, &gone) {
			if delErr := s.repo.Delete(ctx, rec.Endpoint); delErr != nil && !errors.Is(delErr, domain.ErrSubscriptionNotFound) {
				log.Printf("[PUSH] Failed to remove expired subscription %s: %v", rec.Endpoint, delErr)
			}
		}
	}

	return report
}
