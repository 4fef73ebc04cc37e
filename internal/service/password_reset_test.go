package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/utils"
)

func resetFixture(t *testing.T) (*PasswordResetService, *fakeUserStore, *fakeSessionStore, *fakeNotifier, *time.Time) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return now }

	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	tokens := newFakeResetTokenStore(clock)
	notifier := &fakeNotifier{}

	svc := NewPasswordResetService(users, tokens, sessions, notifier, ResetConfig{
		OtpExpiry:   10 * time.Minute,
		RateLimit:   2 * time.Minute,
		MaxAttempts: 5,
		BcryptCost:  4,
	}).WithClock(clock)

	return svc, users, sessions, notifier, &now
}

func TestRequestResetUnknownEmail(t *testing.T) {
	svc, _, _, notifier, _ := resetFixture(t)

	err := svc.RequestReset(context.Background(), "ghost@example.com")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("no OTP may be dispatched for an unknown email")
	}
}

func TestRequestResetRateLimit(t *testing.T) {
	svc, users, _, notifier, now := resetFixture(t)
	seedUser(t, users, "a@example.com")

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}

	// A second request inside the window is rejected with the remaining wait.
	*now = now.Add(30 * time.Second)
	err := svc.RequestReset(context.Background(), "a@example.com")
	var rl *repository.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitedError", err)
	}
	if rl.RetryAfter != 90*time.Second {
		t.Fatalf("retry after = %v, want 90s", rl.RetryAfter)
	}
	if !errors.Is(err, repository.ErrRateLimited) {
		t.Fatal("RateLimitedError must match ErrRateLimited")
	}

	// Past the window a new OTP supersedes the old one.
	*now = now.Add(2 * time.Minute)
	first := notifier.lastOtp()
	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("request past window: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("dispatched %d OTPs, want 2", len(notifier.sent))
	}
	if err := svc.VerifyAndReset(context.Background(), "a@example.com", first, "newpass1"); err == nil {
		t.Fatal("superseded OTP must not verify")
	}
}

func TestRequestResetSurvivesNotifierFailure(t *testing.T) {
	svc, users, _, notifier, _ := resetFixture(t)
	seedUser(t, users, "a@example.com")
	notifier.fail = true

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("dispatch failure must not fail the request: %v", err)
	}
}

func TestVerifyAndResetHappyPath(t *testing.T) {
	svc, users, sessions, notifier, now := resetFixture(t)
	uid := seedUser(t, users, "a@example.com")

	// Two live device sessions before the reset.
	tokens := newTestTokenService(users, sessions, *now)
	for i := 0; i < 2; i++ {
		if _, err := tokens.IssueSession(context.Background(), uid, "a@example.com", "SEEKER"); err != nil {
			t.Fatalf("issue session: %v", err)
		}
	}

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	otp := notifier.lastOtp()
	if len(otp) != 6 {
		t.Fatalf("otp %q is not 6 digits", otp)
	}

	if err := svc.VerifyAndReset(context.Background(), "a@example.com", otp, "brand-new-pass"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	u, err := users.GetByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, "brand-new-pass") {
		t.Fatal("password hash not updated")
	}
	if got := sessions.liveCount(uid, *now); got != 0 {
		t.Fatalf("live sessions after reset = %d, want 0", got)
	}

	// Consume-once: the same OTP cannot be replayed.
	if err := svc.VerifyAndReset(context.Background(), "a@example.com", otp, "another-pass"); !errors.Is(err, repository.ErrInvalidToken) {
		t.Fatalf("replay err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAndResetExpiredOtp(t *testing.T) {
	svc, users, _, notifier, now := resetFixture(t)
	seedUser(t, users, "a@example.com")

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	otp := notifier.lastOtp()

	*now = now.Add(10*time.Minute + time.Second)
	err := svc.VerifyAndReset(context.Background(), "a@example.com", otp, "newpass1")
	if !errors.Is(err, repository.ErrOtpExpired) {
		t.Fatalf("err = %v, want ErrOtpExpired", err)
	}
}

func TestVerifyAndResetAttemptsCap(t *testing.T) {
	svc, users, _, notifier, _ := resetFixture(t)
	seedUser(t, users, "a@example.com")

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	otp := notifier.lastOtp()
	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}

	// Four wrong guesses report the shrinking budget.
	for want := 4; want >= 1; want-- {
		err := svc.VerifyAndReset(context.Background(), "a@example.com", wrong, "newpass1")
		var inv *repository.InvalidOtpError
		if !errors.As(err, &inv) {
			t.Fatalf("attempt err = %v, want InvalidOtpError", err)
		}
		if inv.Remaining != want {
			t.Fatalf("remaining = %d, want %d", inv.Remaining, want)
		}
	}

	// The fifth wrong guess exhausts the budget on the same call.
	if err := svc.VerifyAndReset(context.Background(), "a@example.com", wrong, "newpass1"); !errors.Is(err, repository.ErrOtpAttemptsExceeded) {
		t.Fatalf("exhausting attempt err = %v, want ErrOtpAttemptsExceeded", err)
	}

	// Even the correct OTP is dead now.
	if err := svc.VerifyAndReset(context.Background(), "a@example.com", otp, "newpass1"); !errors.Is(err, repository.ErrOtpAttemptsExceeded) {
		t.Fatalf("correct OTP after exhaustion err = %v, want ErrOtpAttemptsExceeded", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, users, sessions, _, now := resetFixture(t)
	uid := seedUser(t, users, "a@example.com")

	tokens := newTestTokenService(users, sessions, *now)
	if _, err := tokens.IssueSession(context.Background(), uid, "a@example.com", "SEEKER"); err != nil {
		t.Fatalf("issue session: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), uid, "wrong-old", "newpass1"); !errors.Is(err, repository.ErrInvalidCredentials) {
		t.Fatalf("wrong old password err = %v, want ErrInvalidCredentials", err)
	}

	if err := svc.ChangePassword(context.Background(), uid, "hunter22", "newpass1"); err != nil {
		t.Fatalf("change: %v", err)
	}
	u, _ := users.GetByID(context.Background(), uid)
	if !utils.VerifyPassword(u.PasswordHash, "newpass1") {
		t.Fatal("password hash not updated")
	}
	if got := sessions.liveCount(uid, *now); got != 0 {
		t.Fatalf("live sessions after change = %d, want 0", got)
	}
}
