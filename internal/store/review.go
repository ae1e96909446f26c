package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yelpcamp/apiserver/types"
)

// ReviewRepository handles persistence for reviews.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Get(ctx context.Context, id string) (types.Review, error) {
	if !validID(id) {
		return types.Review{}, ErrNotFound
	}

	const query = `
		SELECT id, title, body, rating, author_id, created_at
		FROM reviews
		WHERE id = $1`
	var review types.Review
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&review.ID,
		&review.Title,
		&review.Body,
		&review.Rating,
		&review.AuthorID,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}

// ListByIDs returns the reviews named by ids in the order given. Ids with
// no matching row are skipped.
func (r *ReviewRepository) ListByIDs(ctx context.Context, ids []string) ([]types.Review, error) {
	ids = filterValidIDs(ids)
	if len(ids) == 0 {
		return []types.Review{}, nil
	}

	const query = `
		SELECT id, title, body, rating, author_id, created_at
		FROM reviews
		WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]types.Review, len(ids))
	for rows.Next() {
		var review types.Review
		if err := rows.Scan(
			&review.ID,
			&review.Title,
			&review.Body,
			&review.Rating,
			&review.AuthorID,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		byID[review.ID] = review
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reviews := make([]types.Review, 0, len(byID))
	for _, id := range ids {
		if review, ok := byID[id]; ok {
			reviews = append(reviews, review)
		}
	}
	return reviews, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now()

	const query = `
		INSERT INTO reviews (id, title, body, rating, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.Title,
		review.Body,
		review.Rating,
		review.AuthorID,
		review.CreatedAt,
	); err != nil {
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes every review in ids in one statement and reports how
// many rows went away. Ids that are already gone are not an error.
func (r *ReviewRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ids = filterValidIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteUnreferenced removes reviews older than grace that no campground
// lists. The grace window keeps a review alive between its insert and the
// append onto its campground.
func (r *ReviewRepository) DeleteUnreferenced(ctx context.Context, grace time.Duration) (int64, error) {
	const query = `
		DELETE FROM reviews r
		WHERE r.created_at < $1
		AND NOT EXISTS (
			SELECT 1 FROM campgrounds c WHERE r.id = ANY(c.review_ids)
		)`
	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-grace))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
