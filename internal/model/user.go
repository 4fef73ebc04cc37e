package model

import "time"

// Roles a user account can hold.  The role is embedded in access tokens
// and checked by the role middleware.
const (
	RoleSeeker = "SEEKER"
	RolePoster = "POSTER"
)

// Account statuses.  Only ACTIVE accounts may log in.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// User represents an application user record as stored in the `users`
// table.  The password is persisted as a bcrypt hash only.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Email            – unique, lower-cased email address.
//  PasswordHash     – bcrypt hashed password.
//  Role             – SEEKER or POSTER.
//  Status           – account status (ACTIVE, SUSPENDED, ...).
//  ProfileCompleted – whether the user finished profile setup.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    // users.id
	Email            string    // users.email
	PasswordHash     string    // users.password_hash
	Role             string    // users.role
	Status           string    // users.status
	ProfileCompleted bool      // users.profile_completed
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// Session models an entry in the `sessions` table.  Each row backs one
// logged-in device.  The refresh secret is not stored; only its SHA-256
// hash.  A session is live while RevokedAt is null and ExpiresAt is in
// the future; at most one live row exists per SessionID.
//
// Fields:
//  ID        – primary key identifier.
//  SessionID – opaque UUID identifying the device session.
//  UserID    – owner of the session.
//  TokenHash – SHA-256 hex digest of the refresh secret.
//  ExpiresAt – expiration timestamp of the refresh secret.
//  RevokedAt – when the session was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64     // sessions.id
	SessionID string     // sessions.session_id
	UserID    uint64     // sessions.user_id
	TokenHash string     // sessions.token_hash
	ExpiresAt time.Time  // sessions.expires_at
	RevokedAt *time.Time // sessions.revoked_at (nullable)
	CreatedAt time.Time  // sessions.created_at
}

// Live reports whether the session can still be refreshed at the given
// instant.
func (s *Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
