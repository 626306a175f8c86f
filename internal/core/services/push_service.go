package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

const (
	PushStatusUnsupported = "Push is not supported in this browser."
	PushStatusDenied      = "Notification permission was not granted."
	PushStatusEnabled     = "Push enabled and subscription saved."
)

// ErrSubscribeFailed wraps a backend registration failure. The cause, often a
// *domain.StatusError, stays reachable through errors.As.
var ErrSubscribeFailed = errors.New("subscribe failed")

// PushPlatform is the notification and push capability of the host.
type PushPlatform interface {
	// Supported reports whether both notifications and push subscriptions are available.
	Supported() bool

	RequestPermission(ctx context.Context) (domain.Permission, error)

	// GetSubscription returns the subscription the worker already holds, or nil.
	GetSubscription(ctx context.Context) (*domain.Subscription, error)

	// Subscribe creates a subscription bound to the application server key.
	Subscribe(ctx context.Context, applicationServerKey []byte) (*domain.Subscription, error)
}

// SubscriptionRegistrar registers a subscription with the backend.
type SubscriptionRegistrar interface {
	Subscribe(ctx context.Context, sub *domain.Subscription) error
}

type PushService struct {
	platform  PushPlatform
	metaRepo  domain.MetaRepository
	registrar SubscriptionRegistrar
}

func NewPushService(platform PushPlatform, metaRepo domain.MetaRepository, registrar SubscriptionRegistrar) *PushService {
	return &PushService{
		platform:  platform,
		metaRepo:  metaRepo,
		registrar: registrar,
	}
}

// Enable walks permission -> subscription -> local persistence -> backend registration.
// Unsupported platforms and refused permission are reported as a status, not an error.
func (s *PushService) Enable(ctx context.Context, sess *Session) (string, error) {
	if s.platform == nil || !s.platform.Supported() {
		return PushStatusUnsupported, nil
	}

	permission, err := s.platform.RequestPermission(ctx)
	if err != nil {
		return "", fmt.Errorf("push service: permission request failed: %w", err)
	}
	if permission != domain.PermissionGranted {
		return PushStatusDenied, nil
	}

	sub, err := s.platform.GetSubscription(ctx)
	if err != nil {
		return "", fmt.Errorf("push service: failed to read subscription: %w", err)
	}

	if sub == nil {
		key, err := Base64ToBytes(sess.VAPIDPublicKey)
		if err != nil {
			return "", fmt.Errorf("push service: invalid application server key: %w", err)
		}

		sub, err = s.platform.Subscribe(ctx, key)
		if err != nil {
			return "", fmt.Errorf("push service: subscribe failed: %w", err)
		}
	}

	sess.SubscriptionEndpoint = sub.Endpoint
	if err := s.metaRepo.Set(ctx, domain.MetaSubscriptionEndpoint, sub.Endpoint); err != nil {
		return "", fmt.Errorf("push service: failed to save endpoint: %w", err)
	}

	if err := s.registrar.Subscribe(ctx, sub); err != nil {
		return "", fmt.Errorf("push service: %w: %w", ErrSubscribeFailed, err)
	}

	return PushStatusEnabled, nil
}

// Base64ToBytes decodes base64 in either the URL-safe or standard alphabet,
// with or without padding.
func Base64ToBytes(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return base64.RawURLEncoding.DecodeString(s)
}
