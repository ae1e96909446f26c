package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SchemePBKDF2 = "pbkdf2-sha256"
	SchemeBcrypt = "bcrypt"
)

// PasswordHasher derives and checks password digests.
type PasswordHasher interface {
	Scheme() string
	Hash(password string) (hash, salt string, err error)
	Verify(password, hash, salt string) bool
}

// PBKDF2Hasher stores a hex digest alongside a hex salt, the layout used
// by passport-local-mongoose.
type PBKDF2Hasher struct {
	Iterations int
	KeyLen     int
	SaltLen    int
}

func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{Iterations: 25000, KeyLen: 512, SaltLen: 32}
}

func (h *PBKDF2Hasher) Scheme() string {
	return SchemePBKDF2
}

func (h *PBKDF2Hasher) Hash(password string) (string, string, error) {
	buf := make([]byte, h.SaltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	salt := hex.EncodeToString(buf)
	return h.digest(password, salt), salt, nil
}

func (h *PBKDF2Hasher) Verify(password, hash, salt string) bool {
	got := h.digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
}

func (h *PBKDF2Hasher) digest(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.Iterations, h.KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// BcryptHasher keeps the salt inside the hash.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Scheme() string {
	return SchemeBcrypt
}

func (h *BcryptHasher) Hash(password string) (string, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", "", err
	}
	return string(hashed), "", nil
}

func (h *BcryptHasher) Verify(password, hash, _ string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
