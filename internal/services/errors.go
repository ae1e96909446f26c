package services

import (
	"errors"
	"fmt"

	"github.com/yelpcamp/apiserver/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("password or username is incorrect")
	ErrDuplicateUser      = errors.New("a user with the given username is already registered")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotFound           = store.ErrNotFound
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrPartialCascade     = errors.New("partial cascade")
	ErrValidation         = errors.New("invalid input")

	// ErrReviewNotFound is returned when the campground exists but does
	// not hold the review. It matches ErrNotFound.
	ErrReviewNotFound = fmt.Errorf("review %w", ErrNotFound)
)

// storeError passes ErrNotFound through and marks anything else as a store
// failure.
func storeError(err error) error {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
