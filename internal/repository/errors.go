// Package repository defines error kinds that are reused across
// repositories and services. These sentinel values allow higher layers
// such as handlers to distinguish between failure scenarios without
// inspecting error strings. Handlers translate them into HTTP status
// codes; the services return them as-is.
package repository

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCredentials is returned when an email/password pair does not
// match an active account. The message is deliberately generic so the
// caller cannot tell whether the email is registered.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrDuplicateEmail is returned when registering with an email that is
// already taken. Handlers map it to HTTP 409.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidToken is returned when a presented refresh secret or OTP does
// not match any usable row.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpiredOrRevoked is returned when a refresh secret matches a
// session row that has expired or been revoked. Unlike ErrInvalidToken
// this is terminal for the session; the client must log in again.
var ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")

// ErrRateLimited is returned when a reset OTP is requested again before
// the rate-limit window has elapsed. Use RateLimitedError to carry the
// remaining wait; it matches this sentinel via errors.Is.
var ErrRateLimited = errors.New("rate limited")

// ErrOtpExpired is returned when the OTP's expiry has passed. Terminal
// for that token; a fresh reset request is required.
var ErrOtpExpired = errors.New("otp expired")

// ErrOtpAttemptsExceeded is returned once the attempt counter reaches its
// cap. Terminal even when the correct OTP is presented afterwards.
var ErrOtpAttemptsExceeded = errors.New("otp attempts exceeded")

// ErrInsufficientCredits is returned when a deduction would drive the
// balance negative. The balance is left untouched.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrUserNotFound is returned when no account owns the given id or email.
// Transport-level messages for reset requests must stay generic so this
// cannot be used to enumerate emails.
var ErrUserNotFound = errors.New("user not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrPlanNotFound is returned when a subscription plan id does not match
// an offered plan.
var ErrPlanNotFound = errors.New("plan not found")

// RateLimitedError carries the remaining wait before another reset OTP
// may be requested.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %ds", int(e.RetryAfter.Seconds()))
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// InvalidOtpError reports a wrong OTP while attempts remain.
type InvalidOtpError struct {
	Remaining int
}

func (e *InvalidOtpError) Error() string {
	return fmt.Sprintf("invalid otp: %d attempts remaining", e.Remaining)
}

// Is makes errors.Is(err, ErrInvalidToken) match.
func (e *InvalidOtpError) Is(target error) bool { return target == ErrInvalidToken }
