package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jobos/jobos-backend/internal/model"
	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/utils"
)

// SessionBundle is everything a client receives when a session is
// opened: the short-lived access token and the raw refresh secret.  The
// secret appears here exactly once; only its hash is persisted.
type SessionBundle struct {
	SessionID     string
	Access        utils.AccessToken
	RefreshSecret string
	RefreshExp    time.Time
}

// TokenService issues, refreshes and revokes per-device authentication
// sessions.  Each session is identified by an opaque UUID which is
// embedded in every access token minted for it; session ids are never
// reused.
type TokenService struct {
	sessions       SessionStore
	users          UserStore
	secret         string
	accessTTLMin   int
	refreshTTLDays int
	now            func() time.Time
}

func NewTokenService(sessions SessionStore, users UserStore, jwtSecret string, accessTTLMin, refreshTTLDays int) *TokenService {
	return &TokenService{
		sessions:       sessions,
		users:          users,
		secret:         jwtSecret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
		now:            time.Now,
	}
}

// WithClock overrides the time source; tests use it to move through
// token expiry deterministically.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueSession opens a new device session for the user: a fresh session
// id, a random refresh secret stored as a SHA-256 hash with its expiry,
// and a signed access token bound to the session.
func (s *TokenService) IssueSession(ctx context.Context, userID uint64, email, role string) (SessionBundle, error) {
	sessionID := uuid.NewString()
	refresh, err := utils.NewRefreshSecret(s.refreshTTLDays, s.now())
	if err != nil {
		return SessionBundle{}, err
	}
	if err := s.sessions.Create(ctx, sessionID, userID, utils.HashSecret(refresh.Raw), refresh.Exp); err != nil {
		return SessionBundle{}, err
	}
	access, err := utils.NewAccessToken(s.secret, userID, email, role, sessionID, s.accessTTLMin, s.now())
	if err != nil {
		return SessionBundle{}, err
	}
	return SessionBundle{
		SessionID:     sessionID,
		Access:        access,
		RefreshSecret: refresh.Raw,
		RefreshExp:    refresh.Exp,
	}, nil
}

// Refresh exchanges a refresh secret for a new access token bound to the
// same session.  The refresh secret itself is NOT rotated; it stays
// valid until the session is revoked or expires.  An unknown secret
// fails with ErrInvalidToken, a revoked or expired session with
// ErrTokenExpiredOrRevoked.
func (s *TokenService) Refresh(ctx context.Context, refreshSecret string) (utils.AccessToken, model.User, error) {
	sess, err := s.sessions.FindByTokenHash(ctx, utils.HashSecret(refreshSecret))
	if err != nil {
		return utils.AccessToken{}, model.User{}, err
	}
	if !sess.Live(s.now()) {
		return utils.AccessToken{}, model.User{}, repository.ErrTokenExpiredOrRevoked
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return utils.AccessToken{}, model.User{}, err
	}
	access, err := utils.NewAccessToken(s.secret, user.ID, user.Email, user.Role, sess.SessionID, s.accessTTLMin, s.now())
	if err != nil {
		return utils.AccessToken{}, model.User{}, err
	}
	return access, user, nil
}

// RevokeSession invalidates exactly one device session.  Other sessions
// of the same user keep working.
func (s *TokenService) RevokeSession(ctx context.Context, sessionID string) error {
	return s.sessions.RevokeBySessionID(ctx, sessionID)
}

// ValidateAccessToken checks signature and expiry only; the session
// store is not consulted.  Revoking a session therefore does not recall
// access tokens already in flight — revocation latency is bounded by the
// access-token TTL.
func (s *TokenService) ValidateAccessToken(token string) (utils.AccessClaims, error) {
	claims, err := utils.ParseAccessToken(s.secret, token)
	if err != nil {
		return utils.AccessClaims{}, repository.ErrInvalidToken
	}
	return claims, nil
}
