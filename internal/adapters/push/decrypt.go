package push

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/syaqirshaq/fasting-tracker/internal/core/services"
)

var ErrMalformedMessage = errors.New("malformed push message")

const (
	saltSize   = 16
	headerSize = saltSize + 4 + 1
	tagSize    = 16
	nonceSize  = 12
)

// Decrypt opens an aes128gcm push message (RFC 8188 framing, RFC 8291 keys)
// addressed to sub and returns the plaintext payload.
func Decrypt(body []byte, sub *LocalSubscription) ([]byte, error) {
	if len(body) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrMalformedMessage)
	}

	salt := body[:saltSize]
	rs := binary.BigEndian.Uint32(body[saltSize : saltSize+4])
	idLen := int(body[saltSize+4])
	if rs <= tagSize+1 || len(body) < headerSize+idLen {
		return nil, fmt.Errorf("%w: bad record size or key id", ErrMalformedMessage)
	}
	senderKey := body[headerSize : headerSize+idLen]
	ciphertext := body[headerSize+idLen:]
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedMessage)
	}

	priv, err := sub.privateKey()
	if err != nil {
		return nil, fmt.Errorf("push: load private key: %w", err)
	}
	auth, err := services.Base64ToBytes(sub.Auth)
	if err != nil {
		return nil, fmt.Errorf("push: load auth secret: %w", err)
	}
	asPub, err := ecdh.P256().NewPublicKey(senderKey)
	if err != nil {
		return nil, fmt.Errorf("%w: sender key: %v", ErrMalformedMessage, err)
	}

	secret, err := priv.ECDH(asPub)
	if err != nil {
		return nil, err
	}

	keyInfo := append([]byte("WebPush: info\x00"), priv.PublicKey().Bytes()...)
	keyInfo = append(keyInfo, senderKey...)
	ikm, err := derive(secret, auth, keyInfo, 32)
	if err != nil {
		return nil, err
	}

	cek, err := derive(ikm, salt, []byte("Content-Encoding: aes128gcm\x00"), 16)
	if err != nil {
		return nil, err
	}
	baseNonce, err := derive(ikm, salt, []byte("Content-Encoding: nonce\x00"), nonceSize)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for seq := uint64(0); len(ciphertext) > 0; seq++ {
		n := int(rs)
		if n > len(ciphertext) {
			n = len(ciphertext)
		}
		record := ciphertext[:n]
		ciphertext = ciphertext[n:]
		last := len(ciphertext) == 0

		plain, err := gcm.Open(nil, recordNonce(baseNonce, seq), record, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedMessage, seq, err)
		}

		data, err := unpad(plain, last)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedMessage, seq, err)
		}
		out.Write(data)
	}

	return out.Bytes(), nil
}

func derive(secret, salt, info []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, err
	}
	return out, nil
}

func recordNonce(base []byte, seq uint64) []byte {
	nonce := append([]byte(nil), base...)
	var s [8]byte
	binary.BigEndian.PutUint64(s[:], seq)
	for i := 0; i < 8; i++ {
		nonce[nonceSize-8+i] ^= s[i]
	}
	return nonce
}

// unpad strips trailing zero padding and the delimiter: 0x02 on the last record, 0x01 before it.
func unpad(plain []byte, last bool) ([]byte, error) {
	i := len(plain) - 1
	for i >= 0 && plain[i] == 0 {
		i--
	}
	if i < 0 {
		return nil, errors.New("missing delimiter")
	}

	want := byte(0x01)
	if last {
		want = 0x02
	}
	if plain[i] != want {
		return nil, fmt.Errorf("unexpected delimiter 0x%02x", plain[i])
	}
	return plain[:i], nil
}
