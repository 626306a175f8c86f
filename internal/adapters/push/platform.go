package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

const PermissionQuestion = "Allow Fasting Tracker to show notifications?"

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

var _ services.PushPlatform = (*LocalPlatform)(nil)

// LocalPlatform makes the client its own push service endpoint. The permission
// answer and the subscription keys live in the metadata store.
type LocalPlatform struct {
	meta     domain.MetaRepository
	receiver string
	prompter Prompter
}

// NewLocalPlatform returns a platform receiving pushes at receiver, the public base
// URL of `fasting serve`. An empty receiver means push is unsupported.
func NewLocalPlatform(meta domain.MetaRepository, receiver string, prompter Prompter) *LocalPlatform {
	return &LocalPlatform{
		meta:     meta,
		receiver: strings.TrimSuffix(receiver, "/"),
		prompter: prompter,
	}
}

func (p *LocalPlatform) Supported() bool {
	if p.receiver == "" || p.prompter == nil {
		return false
	}
	u, err := url.Parse(p.receiver)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (p *LocalPlatform) RequestPermission(ctx context.Context) (domain.Permission, error) {
	stored, ok, err := p.meta.Get(ctx, domain.MetaNotificationPermission)
	if err != nil {
		return domain.PermissionDefault, err
	}
	if ok && domain.Permission(stored) != domain.PermissionDefault {
		return domain.Permission(stored), nil
	}

	allowed, err := p.prompter.Confirm(ctx, PermissionQuestion)
	if err != nil {
		return domain.PermissionDefault, err
	}

	permission := domain.PermissionDenied
	if allowed {
		permission = domain.PermissionGranted
	}
	if err := p.meta.Set(ctx, domain.MetaNotificationPermission, string(permission)); err != nil {
		return domain.PermissionDefault, err
	}
	return permission, nil
}

func (p *LocalPlatform) GetSubscription(ctx context.Context) (*domain.Subscription, error) {
	local, err := p.LoadSubscription(ctx)
	if err != nil || local == nil {
		return nil, err
	}
	return local.Subscription(), nil
}

func (p *LocalPlatform) Subscribe(ctx context.Context, applicationServerKey []byte) (*domain.Subscription, error) {
	local, err := NewLocalSubscription(p.receiver, applicationServerKey)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(local)
	if err != nil {
		return nil, err
	}
	if err := p.meta.Set(ctx, domain.MetaPushSubscription, string(raw)); err != nil {
		return nil, fmt.Errorf("push: save subscription: %w", err)
	}
	return local.Subscription(), nil
}

// LoadSubscription returns the stored local subscription, or nil when there is none.
func (p *LocalPlatform) LoadSubscription(ctx context.Context) (*LocalSubscription, error) {
	raw, ok, err := p.meta.Get(ctx, domain.MetaPushSubscription)
	if err != nil || !ok {
		return nil, err
	}

	var local LocalSubscription
	if err := json.Unmarshal([]byte(raw), &local); err != nil {
		return nil, fmt.Errorf("push: stored subscription is corrupted: %w", err)
	}
	return &local, nil
}

// Open authenticates and decrypts a message delivered to /push/<id>.
func (p *LocalPlatform) Open(ctx context.Context, id, authorization, contentEncoding string, body []byte) ([]byte, error) {
	local, err := p.LoadSubscription(ctx)
	if err != nil {
		return nil, err
	}
	if local == nil || local.ID != id {
		return nil, domain.ErrSubscriptionNotFound
	}
	if !strings.EqualFold(strings.TrimSpace(contentEncoding), "aes128gcm") {
		return nil, fmt.Errorf("%w: unsupported content encoding %q", ErrMalformedMessage, contentEncoding)
	}

	serverKey, err := services.Base64ToBytes(local.ServerKey)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(local.Endpoint)
	if err != nil {
		return nil, err
	}
	if err := VerifyVAPID(authorization, endpoint.Scheme+"://"+endpoint.Host, serverKey); err != nil {
		return nil, err
	}

	return Decrypt(body, local)
}
