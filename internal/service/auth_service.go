package service

import (
	"context"
	"strings"

	"github.com/jobos/jobos-backend/internal/model"
	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/utils"
)

// AuthService is the front door for account lifecycle: registration,
// login and logout.  It owns credential checks and delegates session
// issuance to the token service.
type AuthService struct {
	users      UserStore
	tokens     *TokenService
	bcryptCost int
}

func NewAuthService(users UserStore, tokens *TokenService, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates an account and opens its first session.  Role must be
// SEEKER or POSTER; anything else fails with ErrForbidden.  A taken
// email fails with ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (model.User, SessionBundle, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != model.RoleSeeker && role != model.RolePoster {
		return model.User{}, SessionBundle{}, repository.ErrForbidden
	}

	id, err := s.users.Create(ctx, email, password, role, s.bcryptCost)
	if err != nil {
		return model.User{}, SessionBundle{}, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, SessionBundle{}, err
	}
	bundle, err := s.tokens.IssueSession(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return model.User{}, SessionBundle{}, err
	}
	return user, bundle, nil
}

// Login verifies the credentials and opens a new device session.  An
// unknown email, a wrong password and a suspended account all fail with
// the same ErrInvalidCredentials so the response leaks nothing about
// which check tripped.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, SessionBundle, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, SessionBundle{}, repository.ErrInvalidCredentials
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return model.User{}, SessionBundle{}, repository.ErrInvalidCredentials
	}
	if user.Status != model.StatusActive {
		return model.User{}, SessionBundle{}, repository.ErrInvalidCredentials
	}

	bundle, err := s.tokens.IssueSession(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return model.User{}, SessionBundle{}, err
	}
	return user, bundle, nil
}

// Logout revokes the single device session the call came from.  Other
// sessions of the same user stay live.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.tokens.RevokeSession(ctx, sessionID)
}
