package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yelpcamp/apiserver/types"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	Get(ctx context.Context, id string) (types.Review, error)
	ListByIDs(ctx context.Context, ids []string) ([]types.Review, error)
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	DeleteUnreferenced(ctx context.Context, grace time.Duration) (int64, error)
}

// ReviewInput holds the client-editable fields of a review.
type ReviewInput struct {
	Title  string
	Body   string
	Rating int
}

// ReviewService encapsulates review use-cases. Reviews only exist in the
// context of a campground that lists them.
type ReviewService struct {
	repo        ReviewRepository
	campgrounds CampgroundRepository
	logger      *slog.Logger
}

func NewReviewService(repo ReviewRepository, campgrounds CampgroundRepository, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{repo: repo, campgrounds: campgrounds, logger: logger}
}

// Get returns a review referenced by the given campground.
func (s *ReviewService) Get(ctx context.Context, campgroundID, reviewID string) (types.Review, error) {
	campground, err := s.campgrounds.Get(ctx, campgroundID)
	if err != nil {
		return types.Review{}, storeError(err)
	}
	if !campground.HasReview(reviewID) {
		return types.Review{}, ErrReviewNotFound
	}
	review, err := s.repo.Get(ctx, reviewID)
	if errors.Is(err, ErrNotFound) {
		return types.Review{}, ErrReviewNotFound
	}
	return review, storeError(err)
}

// Create stores a review by principal and appends it to the campground's
// review list.
func (s *ReviewService) Create(ctx context.Context, principal, campgroundID string, input ReviewInput) (types.Review, error) {
	if principal == "" {
		return types.Review{}, ErrNotAuthenticated
	}
	if _, err := s.campgrounds.Get(ctx, campgroundID); err != nil {
		return types.Review{}, storeError(err)
	}

	review := types.Review{
		Title:    strings.TrimSpace(input.Title),
		Body:     strings.TrimSpace(input.Body),
		Rating:   input.Rating,
		AuthorID: principal,
	}
	if err := review.Validate(); err != nil {
		return types.Review{}, validationError(err)
	}

	created, err := s.repo.Create(ctx, review)
	if err != nil {
		return types.Review{}, storeError(err)
	}
	if err := s.campgrounds.AppendReview(ctx, campgroundID, created.ID); err != nil {
		// The campground went away between the check and the append.
		if delErr := s.repo.Delete(ctx, created.ID); delErr != nil {
			s.logger.Warn("remove unattached review", "review_id", created.ID, "error", delErr)
		}
		return types.Review{}, storeError(err)
	}
	return created, nil
}

// Delete removes a review owned by principal. The reference is dropped
// from the campground first so the campground never lists a missing review.
func (s *ReviewService) Delete(ctx context.Context, principal, campgroundID, reviewID string) error {
	review, err := s.Get(ctx, campgroundID, reviewID)
	if err != nil {
		return err
	}
	if err := Authorize(principal, review.AuthorID); err != nil {
		return err
	}

	if err := s.campgrounds.RemoveReview(ctx, campgroundID, reviewID); err != nil {
		return storeError(err)
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteOrphans removes reviews older than grace that no campground lists.
func (s *ReviewService) DeleteOrphans(ctx context.Context, grace time.Duration) (int64, error) {
	n, err := s.repo.DeleteUnreferenced(ctx, grace)
	return n, storeError(err)
}
