package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no live record has the given id.
var ErrNotFound = errors.New("session not found")

// Record is the stored form of a session.
type Record struct {
	ID        string
	Data      []byte
	ExpiresAt time.Time
}

// Store persists session records. Implementations must treat records past
// ExpiresAt as missing.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record) error
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
