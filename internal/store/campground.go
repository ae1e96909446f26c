package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yelpcamp/apiserver/types"
)

const campgroundColumns = `id, title, description, price, location, geometry, images, author_id, review_ids, created_at, updated_at`

// CampgroundRepository handles persistence for campgrounds.
type CampgroundRepository struct {
	db *sql.DB
}

func NewCampgroundRepository(db *sql.DB) *CampgroundRepository {
	return &CampgroundRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CampgroundRepository) List(ctx context.Context, offset, limit int) ([]types.Campground, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM campgrounds`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT ` + campgroundColumns + `
		FROM campgrounds
		ORDER BY created_at DESC, id
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campgrounds := make([]types.Campground, 0, limit)
	for rows.Next() {
		campground, err := scanCampground(rows)
		if err != nil {
			return nil, 0, err
		}
		campgrounds = append(campgrounds, campground)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return campgrounds, total, nil
}

func (r *CampgroundRepository) Get(ctx context.Context, id string) (types.Campground, error) {
	if !validID(id) {
		return types.Campground{}, ErrNotFound
	}

	const query = `
		SELECT ` + campgroundColumns + `
		FROM campgrounds
		WHERE id = $1`
	campground, err := scanCampground(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Campground{}, ErrNotFound
		}
		return types.Campground{}, err
	}
	return campground, nil
}

// Create inserts a campground with an empty review list.
func (r *CampgroundRepository) Create(ctx context.Context, campground types.Campground) (types.Campground, error) {
	now := time.Now()
	campground.ID = uuid.NewString()
	campground.CreatedAt = now
	campground.UpdatedAt = now
	campground.ReviewIDs = []string{}
	if campground.Images == nil {
		campground.Images = []types.Image{}
	}

	geometryJSON, imagesJSON, err := marshalCampgroundDocs(campground)
	if err != nil {
		return types.Campground{}, err
	}

	const query = `
		INSERT INTO campgrounds (id, title, description, price, location, geometry, images, author_id, review_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '{}', $9, $10)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		campground.ID,
		campground.Title,
		campground.Description,
		campground.Price,
		campground.Location,
		geometryJSON,
		imagesJSON,
		campground.AuthorID,
		campground.CreatedAt,
		campground.UpdatedAt,
	); err != nil {
		return types.Campground{}, err
	}

	return campground, nil
}

// Update rewrites the editable fields. AuthorID and ReviewIDs are never
// changed here; the stored values are returned.
func (r *CampgroundRepository) Update(ctx context.Context, campground types.Campground) (types.Campground, error) {
	if !validID(campground.ID) {
		return types.Campground{}, ErrNotFound
	}
	if campground.Images == nil {
		campground.Images = []types.Image{}
	}

	geometryJSON, imagesJSON, err := marshalCampgroundDocs(campground)
	if err != nil {
		return types.Campground{}, err
	}

	const query = `
		UPDATE campgrounds
		SET title = $1,
			description = $2,
			price = $3,
			location = $4,
			geometry = $5,
			images = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING ` + campgroundColumns
	updated, err := scanCampground(r.db.QueryRowContext(
		ctx,
		query,
		campground.Title,
		campground.Description,
		campground.Price,
		campground.Location,
		geometryJSON,
		imagesJSON,
		time.Now(),
		campground.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Campground{}, ErrNotFound
		}
		return types.Campground{}, err
	}
	return updated, nil
}

// Delete removes the campground and returns the row as it was, so the
// caller sees the review list at the moment of deletion.
func (r *CampgroundRepository) Delete(ctx context.Context, id string) (types.Campground, error) {
	if !validID(id) {
		return types.Campground{}, ErrNotFound
	}

	const query = `DELETE FROM campgrounds WHERE id = $1 RETURNING ` + campgroundColumns
	deleted, err := scanCampground(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Campground{}, ErrNotFound
		}
		return types.Campground{}, err
	}
	return deleted, nil
}

// AppendReview adds reviewID to the end of the campground's review list.
// Appending an id that is already present leaves the list unchanged.
func (r *CampgroundRepository) AppendReview(ctx context.Context, id, reviewID string) error {
	if !validID(id) || !validID(reviewID) {
		return ErrNotFound
	}

	const query = `
		UPDATE campgrounds
		SET review_ids = CASE
				WHEN $2::uuid = ANY(review_ids) THEN review_ids
				ELSE array_append(review_ids, $2::uuid)
			END,
			updated_at = $3
		WHERE id = $1`
	return r.execOne(ctx, query, id, reviewID, time.Now())
}

// RemoveReview drops reviewID from the campground's review list.
func (r *CampgroundRepository) RemoveReview(ctx context.Context, id, reviewID string) error {
	if !validID(id) || !validID(reviewID) {
		return ErrNotFound
	}

	const query = `
		UPDATE campgrounds
		SET review_ids = array_remove(review_ids, $2::uuid),
			updated_at = $3
		WHERE id = $1`
	return r.execOne(ctx, query, id, reviewID, time.Now())
}

func (r *CampgroundRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
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

func marshalCampgroundDocs(campground types.Campground) (geometryJSON, imagesJSON []byte, err error) {
	if campground.Geometry != nil {
		geometryJSON, err = json.Marshal(campground.Geometry)
		if err != nil {
			return nil, nil, err
		}
	}
	imagesJSON, err = json.Marshal(campground.Images)
	if err != nil {
		return nil, nil, err
	}
	return geometryJSON, imagesJSON, nil
}

func scanCampground(row rowScanner) (types.Campground, error) {
	var campground types.Campground
	var geometryJSON, imagesJSON []byte
	var reviewIDs pq.StringArray
	if err := row.Scan(
		&campground.ID,
		&campground.Title,
		&campground.Description,
		&campground.Price,
		&campground.Location,
		&geometryJSON,
		&imagesJSON,
		&campground.AuthorID,
		&reviewIDs,
		&campground.CreatedAt,
		&campground.UpdatedAt,
	); err != nil {
		return types.Campground{}, err
	}

	if len(geometryJSON) > 0 {
		var geometry types.Geometry
		if err := json.Unmarshal(geometryJSON, &geometry); err != nil {
			return types.Campground{}, fmt.Errorf("decode geometry of campground %s: %w", campground.ID, err)
		}
		campground.Geometry = &geometry
	}
	campground.Images = []types.Image{}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &campground.Images); err != nil {
			return types.Campground{}, fmt.Errorf("decode images of campground %s: %w", campground.ID, err)
		}
		if campground.Images == nil {
			campground.Images = []types.Image{}
		}
	}
	campground.ReviewIDs = []string(reviewIDs)
	if campground.ReviewIDs == nil {
		campground.ReviewIDs = []string{}
	}
	return campground, nil
}
