// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yelpcamp/apiserver/internal/store"
	"github.com/yelpcamp/apiserver/types"
)

// DB holds users, campgrounds and reviews behind a single lock.
type DB struct {
	mu          sync.Mutex
	users       map[string]types.User
	campgrounds map[string]types.Campground
	reviews     map[string]types.Review
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		users:       make(map[string]types.User),
		campgrounds: make(map[string]types.Campground),
		reviews:     make(map[string]types.Review),
	}
}

// UserRepo is the user view of a DB.
type UserRepo struct{ db *DB }

// CampgroundRepo is the campground view of a DB.
type CampgroundRepo struct{ db *DB }

// ReviewRepo is the review view of a DB.
type ReviewRepo struct{ db *DB }

func (db *DB) Users() *UserRepo             { return &UserRepo{db: db} }
func (db *DB) Campgrounds() *CampgroundRepo { return &CampgroundRepo{db: db} }
func (db *DB) Reviews() *ReviewRepo         { return &ReviewRepo{db: db} }

// --- users ---

func (r *UserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, user := range r.db.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepo) ListByIDs(_ context.Context, ids []string) ([]types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := make(map[string]bool, len(ids))
	var users []types.User
	for _, id := range ids {
		if user, ok := r.db.users[id]; ok && !seen[id] {
			seen[id] = true
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *UserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.db.users[user.ID] = user
	return user, nil
}

// --- campgrounds ---

func (r *CampgroundRepo) List(_ context.Context, offset, limit int) ([]types.Campground, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	all := make([]types.Campground, 0, len(r.db.campgrounds))
	for _, c := range r.db.campgrounds {
		all = append(all, cloneCampground(c))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *CampgroundRepo) Get(_ context.Context, id string) (types.Campground, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campgrounds[id]
	if !ok {
		return types.Campground{}, store.ErrNotFound
	}
	return cloneCampground(c), nil
}

func (r *CampgroundRepo) Create(_ context.Context, c types.Campground) (types.Campground, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.ReviewIDs = []string{}
	if c.Images == nil {
		c.Images = []types.Image{}
	}
	r.db.campgrounds[c.ID] = cloneCampground(c)
	return c, nil
}

func (r *CampgroundRepo) Update(_ context.Context, c types.Campground) (types.Campground, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.campgrounds[c.ID]
	if !ok {
		return types.Campground{}, store.ErrNotFound
	}
	existing.Title = c.Title
	existing.Description = c.Description
	existing.Price = c.Price
	existing.Location = c.Location
	existing.Geometry = c.Geometry
	existing.Images = append([]types.Image{}, c.Images...)
	existing.UpdatedAt = time.Now()
	r.db.campgrounds[c.ID] = existing
	return cloneCampground(existing), nil
}

func (r *CampgroundRepo) Delete(_ context.Context, id string) (types.Campground, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campgrounds[id]
	if !ok {
		return types.Campground{}, store.ErrNotFound
	}
	delete(r.db.campgrounds, id)
	return c, nil
}

func (r *CampgroundRepo) AppendReview(_ context.Context, id, reviewID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campgrounds[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.HasReview(reviewID) {
		return nil
	}
	c.ReviewIDs = append(append([]string{}, c.ReviewIDs...), reviewID)
	r.db.campgrounds[id] = c
	return nil
}

func (r *CampgroundRepo) RemoveReview(_ context.Context, id, reviewID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campgrounds[id]
	if !ok {
		return store.ErrNotFound
	}
	kept := make([]string, 0, len(c.ReviewIDs))
	for _, existing := range c.ReviewIDs {
		if existing != reviewID {
			kept = append(kept, existing)
		}
	}
	c.ReviewIDs = kept
	r.db.campgrounds[id] = c
	return nil
}

// --- reviews ---

func (r *ReviewRepo) Get(_ context.Context, id string) (types.Review, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	review, ok := r.db.reviews[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (r *ReviewRepo) ListByIDs(_ context.Context, ids []string) ([]types.Review, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	reviews := make([]types.Review, 0, len(ids))
	for _, id := range ids {
		if review, ok := r.db.reviews[id]; ok {
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

func (r *ReviewRepo) Create(_ context.Context, review types.Review) (types.Review, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now()
	r.db.reviews[review.ID] = review
	return review, nil
}

func (r *ReviewRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.reviews, id)
	return nil
}

func (r *ReviewRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.db.reviews[id]; ok {
			delete(r.db.reviews, id)
			n++
		}
	}
	return n, nil
}

func (r *ReviewRepo) DeleteUnreferenced(_ context.Context, grace time.Duration) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	referenced := make(map[string]bool)
	for _, c := range r.db.campgrounds {
		for _, id := range c.ReviewIDs {
			referenced[id] = true
		}
	}
	cutoff := time.Now().Add(-grace)
	var n int64
	for id, review := range r.db.reviews {
		if !referenced[id] && review.CreatedAt.Before(cutoff) {
			delete(r.db.reviews, id)
			n++
		}
	}
	return n, nil
}

// ReviewCount reports how many reviews are stored.
func (db *DB) ReviewCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.reviews)
}

func cloneCampground(c types.Campground) types.Campground {
	c.ReviewIDs = append([]string{}, c.ReviewIDs...)
	c.Images = append([]types.Image{}, c.Images...)
	return c
}
