package push

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

var ErrUnauthorizedSender = errors.New("push sender is not authorized")

// VerifyVAPID checks an `Authorization: vapid t=<jwt>, k=<key>` header: the key
// must be the application server key the subscription was created with, and the
// ES256 token must be signed by it for this receiver's origin.
func VerifyVAPID(authorization, audience string, serverKey []byte) error {
	scheme, params, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "vapid") {
		return fmt.Errorf("%w: missing vapid authorization", ErrUnauthorizedSender)
	}

	var token, key string
	for _, part := range strings.Split(params, ",") {
		name, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch strings.TrimSpace(name) {
		case "t":
			token = strings.TrimSpace(value)
		case "k":
			key = strings.TrimSpace(value)
		}
	}
	if token == "" || key == "" {
		return fmt.Errorf("%w: incomplete vapid authorization", ErrUnauthorizedSender)
	}

	presented, err := services.Base64ToBytes(key)
	if err != nil || encode(presented) != encode(serverKey) {
		return fmt.Errorf("%w: unexpected application server key", ErrUnauthorizedSender)
	}

	pub, err := ecdsaPublicKey(serverKey)
	if err != nil {
		return err
	}

	_, err = jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return pub, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorizedSender, err)
	}
	return nil
}

func ecdsaPublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	if _, err := ecdh.P256().NewPublicKey(raw); err != nil {
		return nil, fmt.Errorf("push: invalid application server key: %w", err)
	}

	// Uncompressed point: 0x04 || X || Y.
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1:33]),
		Y:     new(big.Int).SetBytes(raw[33:65]),
	}, nil
}
