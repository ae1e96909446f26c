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

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if !validID(id) {
		return types.User{}, ErrNotFound
	}
	const query = `
		SELECT id, username, password_hash, password_salt, hash_scheme, created_at
		FROM users
		WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByUsername looks a user up by exact, case-sensitive username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT id, username, password_hash, password_salt, hash_scheme, created_at
		FROM users
		WHERE username = $1`
	return r.getOne(ctx, query, username)
}

// ListByIDs returns the users whose ids are in ids, in no particular order.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]types.User, error) {
	ids = filterValidIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, username, password_hash, password_salt, hash_scheme, created_at
		FROM users
		WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0, len(ids))
	for rows.Next() {
		var user types.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.PasswordSalt,
			&user.HashScheme,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Create inserts the user and returns it with ID and CreatedAt set.
// A taken username yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO users (id, username, password_hash, password_salt, hash_scheme, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.PasswordSalt,
		user.HashScheme,
		user.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.PasswordSalt,
		&user.HashScheme,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
