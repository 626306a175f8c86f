package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription endpoint not found")
	ErrInvalidSubscription  = errors.New("invalid push subscription")
	ErrPushUnsupported      = errors.New("push is not supported")
	ErrPermissionDenied     = errors.New("notification permission was not granted")
)

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" db:"p256dh"`
	Auth   string `json:"auth" db:"auth"`
}

// Subscription is the push subscription description exchanged with the backend.
type Subscription struct {
	Endpoint string           `json:"endpoint" db:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

func (s *Subscription) Validate() error {
	if s == nil || strings.TrimSpace(s.Endpoint) == "" {
		return ErrInvalidSubscription
	}
	if s.Keys.P256dh == "" || s.Keys.Auth == "" {
		return ErrInvalidSubscription
	}
	return nil
}

// SubscriptionRecord is the backend row for a subscription.
type SubscriptionRecord struct {
	Endpoint         string    `db:"endpoint"`
	P256dh           string    `db:"p256dh"`
	Auth             string    `db:"auth"`
	LastAnsweredDate *string   `db:"last_answered_date"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *SubscriptionRecord) Subscription() *Subscription {
	return &Subscription{
		Endpoint: r.Endpoint,
		Keys:     SubscriptionKeys{P256dh: r.P256dh, Auth: r.Auth},
	}
}

func (r *SubscriptionRecord) AnsweredOn(date string) bool {
	return r.LastAnsweredDate != nil && *r.LastAnsweredDate == date
}

// CheckinRelay is what the client sends to the backend after an answer.
type CheckinRelay struct {
	Endpoint string `json:"endpoint"`
	Date     string `json:"date"`
	Status   Status `json:"status"`
}

// RemoteConfig is served by the backend at /config.
type RemoteConfig struct {
	Timezone        string `json:"timezone,omitempty"`
	VAPIDPublicKey  string `json:"vapidPublicKey"`
	FrontendBaseURL string `json:"frontendBaseUrl,omitempty"`
}

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PushPayload is the JSON carried by a push message. Every field is optional.
type PushPayload struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Tag   string `json:"tag,omitempty"`
	URL   string `json:"url,omitempty"`
}

type SendReport struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
