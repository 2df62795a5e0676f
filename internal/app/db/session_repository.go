package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"profilelounge/internal/app/session"
)

// SessionRepository stores browser sessions in the browser_sessions table.
type SessionRepository struct {
	pool *pgxpool.Pool
}

var _ session.Repository = (*SessionRepository)(nil)

// NewSessionRepository returns a repository on pool. The pool should come from
// NewPool, which creates the table.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const upsertSession = `
INSERT INTO browser_sessions (id, csrf_token, cookies, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET csrf_token = EXCLUDED.csrf_token,
    cookies = EXCLUDED.cookies,
    updated_at = EXCLUDED.updated_at`

func (r *SessionRepository) Save(ctx context.Context, rec session.Record) error {
	cookies, err := json.Marshal(nonNil(rec.Cookies))
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if _, err := r.pool.Exec(ctx, upsertSession, rec.ID, rec.CSRFToken, cookies, rec.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, id string) (session.Record, error) {
	var (
		rec     session.Record
		cookies []byte
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, csrf_token, cookies, updated_at FROM browser_sessions WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.CSRFToken, &cookies, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	if err := json.Unmarshal(cookies, &rec.Cookies); err != nil {
		return session.Record{}, fmt.Errorf("failed to decode cookies of session %s: %w", id, err)
	}
	return rec, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM browser_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM browser_sessions WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nonNil(cookies []session.StoredCookie) []session.StoredCookie {
	if cookies == nil {
		return []session.StoredCookie{}
	}
	return cookies
}
