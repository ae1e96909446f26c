package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/yelpcamp/apiserver/internal/store/memory"
	"github.com/yelpcamp/apiserver/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastHasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{Iterations: 1, KeyLen: 32, SaltLen: 8}
}

// fixture wires the services over one in-memory database.
type fixture struct {
	db          *memory.DB
	users       *UserService
	campgrounds *CampgroundService
	reviews     *ReviewService
}

func newFixture() *fixture {
	db := memory.New()
	logger := discardLogger()
	campgrounds := NewCampgroundService(db.Campgrounds(), db.Users(), db.Reviews(), logger)
	campgrounds.OnDelete(NewReviewCascade(db.Reviews()))
	return &fixture{
		db:          db,
		users:       NewUserService(db.Users(), fastHasher()),
		campgrounds: campgrounds,
		reviews:     NewReviewService(db.Reviews(), db.Campgrounds(), logger),
	}
}

func campgroundInput(title string) CampgroundInput {
	return CampgroundInput{
		Title:       title,
		Description: "A quiet spot.",
		Price:       10,
		Location:    "Bend, Oregon",
		Geometry:    &types.Geometry{Type: types.GeometryTypePoint, Coordinates: []float64{-121.3, 44.05}},
	}
}

// mockReviewRepo records DeleteMany calls; other methods are unused by the
// cascade.
type mockReviewRepo struct {
	deleteManyFn    func(ctx context.Context, ids []string) (int64, error)
	deleteManyCalls [][]string
}

func (m *mockReviewRepo) Get(context.Context, string) (types.Review, error) {
	return types.Review{}, ErrNotFound
}

func (m *mockReviewRepo) ListByIDs(context.Context, []string) ([]types.Review, error) {
	return nil, nil
}

func (m *mockReviewRepo) Create(_ context.Context, r types.Review) (types.Review, error) {
	return r, nil
}

func (m *mockReviewRepo) Delete(context.Context, string) error {
	return nil
}

func (m *mockReviewRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	m.deleteManyCalls = append(m.deleteManyCalls, append([]string(nil), ids...))
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockReviewRepo) DeleteUnreferenced(context.Context, time.Duration) (int64, error) {
	return 0, nil
}
