package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/yelpcamp/apiserver/types"
)

// CampgroundRepository defines persistence operations for campgrounds.
type CampgroundRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Campground, int, error)
	Get(ctx context.Context, id string) (types.Campground, error)
	Create(ctx context.Context, campground types.Campground) (types.Campground, error)
	Update(ctx context.Context, campground types.Campground) (types.Campground, error)
	Delete(ctx context.Context, id string) (types.Campground, error)
	AppendReview(ctx context.Context, id, reviewID string) error
	RemoveReview(ctx context.Context, id, reviewID string) error
}

// ImageStore persists uploaded campground images.
type ImageStore interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (types.Image, error)
	Remove(ctx context.Context, filename string) error
}

// Upload is one image file sent with a create or update request.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CampgroundInput holds the client-editable fields of a campground.
type CampgroundInput struct {
	Title       string
	Description string
	Price       float64
	Location    string
	Geometry    *types.Geometry
}

// DeleteHook is notified after a campground deletion has committed.
type DeleteHook interface {
	OnCampgroundDeleted(ctx context.Context, evt types.CampgroundDeleted) error
}

// DeleteHookFunc adapts a function to DeleteHook.
type DeleteHookFunc func(ctx context.Context, evt types.CampgroundDeleted) error

func (f DeleteHookFunc) OnCampgroundDeleted(ctx context.Context, evt types.CampgroundDeleted) error {
	return f(ctx, evt)
}

// ReviewDetail is a review with its author resolved.
type ReviewDetail struct {
	types.Review
	Author *types.User `json:"author"`
}

// CampgroundDetail is a campground with its author and reviews resolved.
type CampgroundDetail struct {
	types.Campground
	Author  *types.User    `json:"author"`
	Reviews []ReviewDetail `json:"reviews"`
}

// CampgroundService encapsulates campground use-cases.
type CampgroundService struct {
	repo    CampgroundRepository
	users   UserRepository
	reviews ReviewRepository
	images  ImageStore
	hooks   []DeleteHook
	logger  *slog.Logger
	now     func() time.Time
}

func NewCampgroundService(repo CampgroundRepository, users UserRepository, reviews ReviewRepository, logger *slog.Logger) *CampgroundService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CampgroundService{
		repo:    repo,
		users:   users,
		reviews: reviews,
		logger:  logger,
		now:     time.Now,
	}
}

// SetImageStore enables image uploads. Without one, requests carrying
// images are rejected.
func (s *CampgroundService) SetImageStore(images ImageStore) {
	s.images = images
}

// OnDelete registers a hook. Hooks run in registration order.
func (s *CampgroundService) OnDelete(hook DeleteHook) {
	s.hooks = append(s.hooks, hook)
}

func (s *CampgroundService) List(ctx context.Context, offset, limit int) ([]types.Campground, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	campgrounds, total, err := s.repo.List(ctx, offset, limit)
	return campgrounds, total, storeError(err)
}

func (s *CampgroundService) Get(ctx context.Context, id string) (types.Campground, error) {
	campground, err := s.repo.Get(ctx, id)
	return campground, storeError(err)
}

// GetDetail loads a campground and resolves its author, its reviews in
// list order and each review's author. References to records that no
// longer exist are skipped.
func (s *CampgroundService) GetDetail(ctx context.Context, id string) (CampgroundDetail, error) {
	campground, err := s.repo.Get(ctx, id)
	if err != nil {
		return CampgroundDetail{}, storeError(err)
	}

	reviews, err := s.reviews.ListByIDs(ctx, campground.ReviewIDs)
	if err != nil {
		return CampgroundDetail{}, storeError(err)
	}

	authorIDs := []string{campground.AuthorID}
	for _, review := range reviews {
		authorIDs = append(authorIDs, review.AuthorID)
	}
	users, err := s.users.ListByIDs(ctx, authorIDs)
	if err != nil {
		return CampgroundDetail{}, storeError(err)
	}
	byID := make(map[string]types.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	detail := CampgroundDetail{
		Campground: campground,
		Reviews:    make([]ReviewDetail, 0, len(reviews)),
	}
	if author, ok := byID[campground.AuthorID]; ok {
		detail.Author = &author
	}
	for _, review := range reviews {
		rd := ReviewDetail{Review: review}
		if author, ok := byID[review.AuthorID]; ok {
			rd.Author = &author
		}
		detail.Reviews = append(detail.Reviews, rd)
	}
	return detail, nil
}

// Create stores a new campground authored by principal.
func (s *CampgroundService) Create(ctx context.Context, principal string, input CampgroundInput, uploads []Upload) (types.Campground, error) {
	if principal == "" {
		return types.Campground{}, ErrNotAuthenticated
	}

	campground := types.Campground{AuthorID: principal}
	applyInput(&campground, input)
	if err := campground.Validate(); err != nil {
		return types.Campground{}, validationError(err)
	}

	images, err := s.upload(ctx, uploads)
	if err != nil {
		return types.Campground{}, err
	}
	campground.Images = images

	created, err := s.repo.Create(ctx, campground)
	if err != nil {
		s.removeImages(ctx, images)
		return types.Campground{}, storeError(err)
	}
	return created, nil
}

// Update edits a campground owned by principal. New uploads are appended;
// images whose filename is listed in deleteImages are removed.
func (s *CampgroundService) Update(ctx context.Context, principal, id string, input CampgroundInput, uploads []Upload, deleteImages []string) (types.Campground, error) {
	campground, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Campground{}, storeError(err)
	}
	if err := Authorize(principal, campground.AuthorID); err != nil {
		return types.Campground{}, err
	}

	applyInput(&campground, input)
	if err := campground.Validate(); err != nil {
		return types.Campground{}, validationError(err)
	}

	added, err := s.upload(ctx, uploads)
	if err != nil {
		return types.Campground{}, err
	}

	drop := make(map[string]bool, len(deleteImages))
	for _, filename := range deleteImages {
		drop[filename] = true
	}
	kept := make([]types.Image, 0, len(campground.Images)+len(added))
	var removed []types.Image
	for _, image := range campground.Images {
		if drop[image.Filename] {
			removed = append(removed, image)
			continue
		}
		kept = append(kept, image)
	}
	campground.Images = append(kept, added...)

	updated, err := s.repo.Update(ctx, campground)
	if err != nil {
		s.removeImages(ctx, added)
		return types.Campground{}, storeError(err)
	}
	s.removeImages(ctx, removed)
	return updated, nil
}

// Delete removes a campground owned by principal and then notifies every
// registered hook once with the review list as it was at deletion. Hook
// failures are logged; the deletion itself has already succeeded.
func (s *CampgroundService) Delete(ctx context.Context, principal, id string) error {
	campground, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if err := Authorize(principal, campground.AuthorID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(err)
	}

	evt := types.CampgroundDeleted{
		CampgroundID: deleted.ID,
		ReviewIDs:    deleted.ReviewIDs,
		DeletedAt:    s.now(),
	}
	for _, hook := range s.hooks {
		if err := hook.OnCampgroundDeleted(ctx, evt); err != nil {
			s.logger.Error("campground delete hook failed",
				"campground_id", evt.CampgroundID,
				"review_ids", evt.ReviewIDs,
				"error", err,
			)
		}
	}
	s.removeImages(ctx, deleted.Images)
	return nil
}

func (s *CampgroundService) upload(ctx context.Context, uploads []Upload) ([]types.Image, error) {
	if len(uploads) == 0 {
		return []types.Image{}, nil
	}
	if s.images == nil {
		return nil, validationError(errors.New("image uploads are not enabled"))
	}

	images := make([]types.Image, 0, len(uploads))
	for _, upload := range uploads {
		image, err := s.images.Upload(ctx, upload.Name, upload.Body, upload.Size, upload.ContentType)
		if err != nil {
			s.removeImages(ctx, images)
			return nil, storeError(err)
		}
		images = append(images, image)
	}
	return images, nil
}

func (s *CampgroundService) removeImages(ctx context.Context, images []types.Image) {
	if s.images == nil {
		return
	}
	for _, image := range images {
		if err := s.images.Remove(ctx, image.Filename); err != nil {
			s.logger.Warn("remove image", "filename", image.Filename, "error", err)
		}
	}
}

func applyInput(campground *types.Campground, input CampgroundInput) {
	campground.Title = strings.TrimSpace(input.Title)
	campground.Description = strings.TrimSpace(input.Description)
	campground.Price = input.Price
	campground.Location = strings.TrimSpace(input.Location)
	if input.Geometry != nil {
		campground.Geometry = input.Geometry
	}
}
