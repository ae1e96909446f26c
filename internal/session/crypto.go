package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	nonceSize         = 24
	payloadCipherInfo = "yelpcamp session payload"
)

var errPayloadCipher = errors.New("session payload cannot be decrypted")

// payloadCipher seals session payloads for stores that keep them outside
// the process. The key is derived from the session secret, so rotating the
// secret also invalidates stored payloads.
type payloadCipher struct {
	key [32]byte
}

func newPayloadCipher(secret string) (*payloadCipher, error) {
	c := &payloadCipher{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(payloadCipherInfo))
	if _, err := io.ReadFull(kdf, c.key[:]); err != nil {
		return nil, err
	}
	return c, nil
}

// seal returns base64(nonce || secretbox(plaintext)).
func (c *payloadCipher) seal(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *payloadCipher) open(value string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errPayloadCipher
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, errPayloadCipher
	}
	return plaintext, nil
}
