package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jobos/jobos-backend/internal/model"
)

// SessionRepo persists per-device refresh sessions (single 'token_hash'
// column; the raw refresh secret never reaches the database).  Revocation
// and refresh lookups are both single statements against the same row, so
// a refresh can never succeed once a revoke is committed.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row binding a refresh secret hash to an
// opaque session id.
func (r *SessionRepo) Create(ctx context.Context, sessionID string, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, token_hash, expires_at) VALUES (?,?,?,?)",
		sessionID, userID, tokenHash, expiresAt)
	return err
}

// FindByTokenHash returns the session row matching a refresh secret hash,
// regardless of its revoked/expired state; the caller decides which
// failure to report.  Returns ErrInvalidToken when no row exists.
func (r *SessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	var (
		s         model.Session
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, session_id, user_id, token_hash, expires_at, revoked_at, created_at FROM sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&s.ID, &s.SessionID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &revokedAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Session{}, ErrInvalidToken
	}
	if err != nil {
		return model.Session{}, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return s, nil
}

// RevokeBySessionID marks the session as revoked.  The guard on
// revoked_at makes the operation idempotent and linearizes it against
// concurrent refresh lookups on the same row.
func (r *SessionRepo) RevokeBySessionID(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE session_id=? AND revoked_at IS NULL",
		sessionID)
	return err
}

// RevokeAllForUser revokes every active session the user has.  Used on
// password change/reset where a global logout is required.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
