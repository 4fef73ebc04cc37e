package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jobos/jobos-backend/internal/model"
)

// ResetTokenRepo provides data access to the `password_reset_tokens`
// table.  At most one unused token exists per email: requesting a new
// OTP deletes the previous rows first.  Attempt counting and consumption
// are guarded in SQL so concurrent submissions cannot lose an increment
// or consume a token twice.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Create inserts a fresh token row with attempts=0.
func (r *ResetTokenRepo) Create(ctx context.Context, email, otpHash string, expiresAt time.Time, maxAttempts int) (model.PasswordResetToken, error) {
	t := model.PasswordResetToken{
		ID:          uuid.NewString(),
		Email:       email,
		OtpHash:     otpHash,
		ExpiresAt:   expiresAt,
		MaxAttempts: maxAttempts,
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (id, email, otp_hash, expires_at, attempts, max_attempts) VALUES (?,?,?,?,0,?)",
		t.ID, t.Email, t.OtpHash, t.ExpiresAt, t.MaxAttempts)
	if err != nil {
		return model.PasswordResetToken{}, err
	}
	return t, nil
}

// FindActiveByEmail returns the unconsumed token row for the email, if
// any.  "Active" means used_at is still null; expiry and attempts are
// judged by the caller.  Returns ErrInvalidToken when no row exists.
func (r *ResetTokenRepo) FindActiveByEmail(ctx context.Context, email string) (model.PasswordResetToken, error) {
	var (
		t      model.PasswordResetToken
		usedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, otp_hash, expires_at, attempts, max_attempts, used_at, created_at
		 FROM password_reset_tokens
		 WHERE email=? AND used_at IS NULL LIMIT 1`,
		email).Scan(&t.ID, &t.Email, &t.OtpHash, &t.ExpiresAt, &t.Attempts, &t.MaxAttempts, &usedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.PasswordResetToken{}, ErrInvalidToken
	}
	if err != nil {
		return model.PasswordResetToken{}, err
	}
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return t, nil
}

// DeleteByEmail removes all token rows for the email.  Called before a
// new OTP is issued so stale rows cannot be replayed.
func (r *ResetTokenRepo) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE email=?", email)
	return err
}

// RegisterFailedAttempt bumps the attempt counter and returns the new
// count.  The increment is a single guarded UPDATE, so two concurrent
// wrong submissions each count exactly once and the counter never passes
// max_attempts.
func (r *ResetTokenRepo) RegisterFailedAttempt(ctx context.Context, id string) (int, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE password_reset_tokens SET attempts = attempts + 1 WHERE id=? AND attempts < max_attempts",
		id)
	if err != nil {
		return 0, err
	}
	var attempts int
	err = r.DB.QueryRowContext(ctx,
		"SELECT attempts FROM password_reset_tokens WHERE id=?", id).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, ErrInvalidToken
	}
	return attempts, err
}

// Consume marks the token used.  The guard on used_at ensures a token is
// consumed at most once; the second caller gets ErrInvalidToken.
func (r *ResetTokenRepo) Consume(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used_at=UTC_TIMESTAMP() WHERE id=? AND used_at IS NULL",
		id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidToken
	}
	return nil
}
