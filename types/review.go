package types

import (
	"errors"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a campground.
// A review is created in the context of one campground, which lists it in
// ReviewIDs; the review itself does not point back.
type Review struct {
	// ID is the unique identifier of the review.
	ID string `json:"id" db:"id"`

	// Title is an optional headline for the review.
	Title string `json:"title" db:"title"`

	// Body is the review text.
	Body string `json:"body" db:"body"`

	// Rating is the score given, between MinRating and MaxRating.
	Rating int `json:"rating" db:"rating"`

	// AuthorID references the user that wrote the review.
	AuthorID string `json:"author_id" db:"author_id"`

	// CreatedAt is the timestamp at which the review was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks the fields a client may set.
func (r Review) Validate() error {
	if strings.TrimSpace(r.Body) == "" {
		return errors.New("review body is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}
