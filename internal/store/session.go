package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/yelpcamp/apiserver/internal/session"
)

// SessionRepository is the Postgres-backed session.Store.
type SessionRepository struct {
	db *sql.DB
}

var _ session.Store = (*SessionRepository)(nil)

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the record for id. Expired rows are reported as missing even
// if the sweeper has not removed them yet.
func (r *SessionRepository) Get(ctx context.Context, id string) (session.Record, error) {
	const query = `
		SELECT id, data, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > $2`
	var rec session.Record
	err := r.db.QueryRowContext(ctx, query, id, time.Now()).Scan(&rec.ID, &rec.Data, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Record{}, session.ErrNotFound
		}
		return session.Record{}, err
	}
	return rec, nil
}

func (r *SessionRepository) Save(ctx context.Context, rec session.Record) error {
	const query = `
		INSERT INTO sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.Data, rec.ExpiresAt)
	return err
}

func (r *SessionRepository) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sessions SET expires_at = $1 WHERE id = $2`, expiresAt, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
