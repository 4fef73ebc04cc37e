package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/utils"
)

// ResetConfig carries the tunables of the password-reset flow.  These
// are configuration, not constants; cmd/server fills them from the
// environment.
type ResetConfig struct {
	OtpExpiry   time.Duration // how long an OTP stays valid
	RateLimit   time.Duration // minimum gap between OTP requests per email
	MaxAttempts int           // verification attempts before the token dies
	BcryptCost  int           // cost for the new password hash
}

// PasswordResetService runs the OTP state machine for an email:
//
//	NONE -> REQUESTED -> VERIFIED | EXPIRED | ATTEMPTS_EXCEEDED
//
// REQUESTED is re-entered only by superseding the previous token.  A
// successful verification consumes the token (at most once), rewrites
// the password hash and revokes every session the user has.
type PasswordResetService struct {
	users    UserStore
	tokens   ResetTokenStore
	sessions SessionStore
	notifier Notifier
	cfg      ResetConfig
	now      func() time.Time
}

func NewPasswordResetService(users UserStore, tokens ResetTokenStore, sessions SessionStore, notifier Notifier, cfg ResetConfig) *PasswordResetService {
	return &PasswordResetService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic expiry tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset issues a fresh OTP for the email and dispatches it via
// the notifier.  Fails with ErrUserNotFound when no account owns the
// email (the transport keeps its message generic so this cannot be used
// to enumerate accounts) and with a RateLimitedError carrying the
// remaining wait when an OTP was issued too recently.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return err
	}

	// Rate limit is measured from the creation of the still-unused
	// token, whatever state it is in otherwise.
	if existing, err := s.tokens.FindActiveByEmail(ctx, email); err == nil {
		age := s.now().Sub(existing.CreatedAt)
		if age < s.cfg.RateLimit {
			return &repository.RateLimitedError{RetryAfter: s.cfg.RateLimit - age}
		}
	}

	if err := s.tokens.DeleteByEmail(ctx, email); err != nil {
		return err
	}

	otp, err := utils.NewOtp()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.cfg.OtpExpiry)
	if _, err := s.tokens.Create(ctx, email, utils.HashSecret(otp), expiresAt, s.cfg.MaxAttempts); err != nil {
		return err
	}

	// Fire-and-forget: a delivery failure must not roll back the
	// issued token.
	if err := s.notifier.SendOtp(ctx, email, otp, s.cfg.OtpExpiry); err != nil {
		log.Printf("[password-reset] otp dispatch failed for %s: %v", email, err)
	}
	return nil
}

// VerifyAndReset checks the presented OTP and, on success, sets the new
// password, revokes all of the user's sessions and consumes the token.
// Failure order: no usable token (ErrInvalidToken), already used
// (ErrInvalidToken), expired (ErrOtpExpired), attempts exhausted
// (ErrOtpAttemptsExceeded) — the attempts check happens before the OTP
// comparison, so an exhausted token rejects even the correct code.
func (s *PasswordResetService) VerifyAndReset(ctx context.Context, email, otp, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	token, err := s.tokens.FindActiveByEmail(ctx, email)
	if err != nil {
		return err
	}
	if token.Used() {
		return repository.ErrInvalidToken
	}
	if token.Expired(s.now()) {
		return repository.ErrOtpExpired
	}
	if token.AttemptsExhausted() {
		return repository.ErrOtpAttemptsExceeded
	}

	if utils.HashSecret(otp) != token.OtpHash {
		attempts, incErr := s.tokens.RegisterFailedAttempt(ctx, token.ID)
		if incErr != nil {
			return incErr
		}
		remaining := token.MaxAttempts - attempts
		if remaining <= 0 {
			return repository.ErrOtpAttemptsExceeded
		}
		return &repository.InvalidOtpError{Remaining: remaining}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	// Any password change logs the user out everywhere.
	if err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}
	return s.tokens.Consume(ctx, token.ID)
}

// ChangePassword is the authenticated variant: it verifies the old
// password before rewriting the hash, and applies the same global-logout
// invariant as a reset.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(user.PasswordHash, oldPassword) {
		return repository.ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}
	return s.sessions.RevokeAllForUser(ctx, userID)
}
