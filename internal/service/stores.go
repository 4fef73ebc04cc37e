// Package service implements the credential and credit lifecycle logic.
// Services depend on narrow store interfaces rather than concrete
// repositories so the state machines can be tested against in-memory
// fakes with an injected clock.  The repository package provides the
// MySQL-backed implementations.
package service

import (
	"context"
	"time"

	"github.com/jobos/jobos-backend/internal/model"
)

// UserStore is the user collaborator consumed by the auth, reset and
// credit services.
type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// SessionStore persists per-device refresh sessions keyed by the SHA-256
// hash of the refresh secret.
type SessionStore interface {
	Create(ctx context.Context, sessionID string, userID uint64, tokenHash string, expiresAt time.Time) error
	FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error)
	RevokeBySessionID(ctx context.Context, sessionID string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ResetTokenStore persists password-reset OTP tokens, one active row per
// email.  RegisterFailedAttempt and Consume must be atomic per row.
type ResetTokenStore interface {
	Create(ctx context.Context, email, otpHash string, expiresAt time.Time, maxAttempts int) (model.PasswordResetToken, error)
	FindActiveByEmail(ctx context.Context, email string) (model.PasswordResetToken, error)
	DeleteByEmail(ctx context.Context, email string) error
	RegisterFailedAttempt(ctx context.Context, id string) (int, error)
	Consume(ctx context.Context, id string) error
}

// CreditStore persists balances and the append-only transaction ledger.
// Add and Deduct must serialize mutations per user so the balance never
// goes negative under concurrent deductions.
type CreditStore interface {
	GetBalance(ctx context.Context, userID uint64) (model.CreditBalance, error)
	Add(ctx context.Context, userID uint64, amount int64, txType, description string) (int64, error)
	Deduct(ctx context.Context, userID uint64, amount int64, description string) (int64, error)
	ListTransactions(ctx context.Context, userID uint64, page, size int) ([]model.CreditTransaction, error)
}

// PlanStore persists subscription plans and user subscriptions.
type PlanStore interface {
	ListActive(ctx context.Context) ([]model.SubscriptionPlan, error)
	GetByID(ctx context.Context, id string) (model.SubscriptionPlan, error)
	Subscribe(ctx context.Context, userID uint64, planID string, start, end time.Time) error
}

// Notifier dispatches one-time passcodes to the user.  Delivery is
// fire-and-forget: a failed dispatch is logged by the caller and never
// rolls back the state mutation that preceded it.
type Notifier interface {
	SendOtp(ctx context.Context, email, otp string, expiresIn time.Duration) error
}
