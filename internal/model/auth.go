package model

import (
	"errors"
	"time"
)

// AuthUser is a credential record owned by the authentication collaborator.
type AuthUser struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	Handle         string    `db:"handle" json:"handle"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// UserMetadata is the display data attached at sign-up.
type UserMetadata struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
}

// Session is an authenticated session.
type Session struct {
	Token     string       `json:"token"`
	UserID    string       `json:"user_id"`
	Email     string       `json:"email"`
	Metadata  UserMetadata `json:"metadata"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// AuthEventType distinguishes auth state transitions.
type AuthEventType string

const (
	SignedIn  AuthEventType = "SIGNED_IN"
	SignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is emitted by the authenticator on sign-in and sign-out.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// AuthError is a sign-in or sign-up failure with a message fit for display.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Error codes for HTTP responses
const (
	CodeAuthFailed   = "AUTH_FAILED"
	CodeNotSignedIn  = "NOT_SIGNED_IN"
	CodeSessionStale = "SESSION_EXPIRED"
)

var (
	// ErrEmailExists is returned when signing up with a registered email
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned when sign-in credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrInvalidSession is returned for unknown, malformed or expired tokens
	ErrInvalidSession = errors.New("invalid session")

	// ErrUserNotFound is returned when a credential record cannot be found
	ErrUserNotFound = errors.New("user not found")
)
