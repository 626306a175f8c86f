package push

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

const authSecretSize = 16

// LocalSubscription is a push subscription whose receiving end is this process.
// It keeps the private half so incoming messages can be decrypted.
type LocalSubscription struct {
	ID         string `json:"id"`
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	PrivateKey string `json:"privateKey"`
	ServerKey  string `json:"applicationServerKey"`
}

// NewLocalSubscription generates a P-256 key pair and auth secret and binds the
// subscription to the application server key.
func NewLocalSubscription(receiverBase string, serverKey []byte) (*LocalSubscription, error) {
	if _, err := ecdh.P256().NewPublicKey(serverKey); err != nil {
		return nil, fmt.Errorf("push: invalid application server key: %w", err)
	}

	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("push: generate key: %w", err)
	}

	auth := make([]byte, authSecretSize)
	if _, err := rand.Read(auth); err != nil {
		return nil, fmt.Errorf("push: generate auth secret: %w", err)
	}

	id := uuid.NewString()
	return &LocalSubscription{
		ID:         id,
		Endpoint:   strings.TrimSuffix(receiverBase, "/") + "/push/" + id,
		P256dh:     encode(priv.PublicKey().Bytes()),
		Auth:       encode(auth),
		PrivateKey: encode(priv.Bytes()),
		ServerKey:  encode(serverKey),
	}, nil
}

func (s *LocalSubscription) Subscription() *domain.Subscription {
	return &domain.Subscription{
		Endpoint: s.Endpoint,
		Keys:     domain.SubscriptionKeys{P256dh: s.P256dh, Auth: s.Auth},
	}
}

func (s *LocalSubscription) privateKey() (*ecdh.PrivateKey, error) {
	raw, err := services.Base64ToBytes(s.PrivateKey)
	if err != nil {
		return nil, err
	}
	return ecdh.P256().NewPrivateKey(raw)
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
