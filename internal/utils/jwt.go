package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh secrets and OTPs
	"encoding/hex"  // hex encoding of digests and random bytes
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived, stateless and encoded in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims is the decoded payload of an access token.  Validity of
// the token is purely algorithmic: signature and expiry are checked, the
// session store is never consulted.  A revoked session therefore keeps
// its already-issued access tokens until they expire on their own.
type AccessClaims struct {
	UserID    uint64
	Email     string
	Role      string
	SessionID string
	ExpiresAt time.Time
}

// RefreshSecret represents a long-lived secret exchanged for new access
// tokens.  The Raw field is returned to the client exactly once; in the
// database only a SHA-256 hash of it is stored.
type RefreshSecret struct {
	Raw string    // raw secret returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user session.  The
// claims carry the subject (user ID), email, role and the opaque session
// id, plus exp and iat.
func NewAccessToken(secret string, userID uint64, email, role, sessionID string, ttlMin int, now time.Time) (AccessToken, error) {
	exp := now.UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"sid":   sessionID,
		"exp":   exp.Unix(),
		"iat":   now.UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a token string
// and returns its claims.  Tokens signed with a different method or
// secret are rejected.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return AccessClaims{}, errors.New("invalid access token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, errors.New("invalid claims")
	}
	out := AccessClaims{}
	// JWT numeric values decode as float64.
	if sub, ok := claims["sub"].(float64); ok {
		out.UserID = uint64(sub)
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if sid, ok := claims["sid"].(string); ok {
		out.SessionID = sid
	}
	if out.UserID == 0 || out.SessionID == "" {
		return AccessClaims{}, errors.New("invalid claims")
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}

// NewRefreshSecret returns a cryptographically secure random secret (raw)
// and its expiration time.  The ttlDays parameter controls how many days
// the secret stays valid.
func NewRefreshSecret(ttlDays int, now time.Time) (RefreshSecret, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshSecret{}, err
	}
	return RefreshSecret{
		Raw: raw,
		Exp: now.UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashSecret returns the SHA-256 hash of a refresh secret or OTP as a hex
// string.  Storing only the hash prevents attackers from using stolen
// database rows to refresh sessions or reset passwords.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
