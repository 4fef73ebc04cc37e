package model

import "time"

// PasswordResetToken models a row in the `password_reset_tokens` table.
// At most one active (unused) token exists per email.  The OTP itself is
// never stored; only its SHA-256 hash.  A token becomes unusable once
// UsedAt is set, once ExpiresAt passes, or once Attempts reaches
// MaxAttempts; the row stays around until superseded or deleted.
type PasswordResetToken struct {
	ID          string     // password_reset_tokens.id (uuid)
	Email       string     // password_reset_tokens.email
	OtpHash     string     // password_reset_tokens.otp_hash
	ExpiresAt   time.Time  // password_reset_tokens.expires_at
	Attempts    int        // password_reset_tokens.attempts
	MaxAttempts int        // password_reset_tokens.max_attempts
	UsedAt      *time.Time // password_reset_tokens.used_at (nullable)
	CreatedAt   time.Time  // password_reset_tokens.created_at
}

// Used reports whether the token was already consumed.
func (t *PasswordResetToken) Used() bool { return t.UsedAt != nil }

// Expired reports whether the token has passed its expiry at the given
// instant.
func (t *PasswordResetToken) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }

// AttemptsExhausted reports whether no verification attempts remain.
func (t *PasswordResetToken) AttemptsExhausted() bool { return t.Attempts >= t.MaxAttempts }
