// Package auth is the client side of the authentication provider: it keeps
// the current session, refreshes it and broadcasts auth-state changes.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoSession = errors.New("no active session")

	// ErrInvalidRefreshToken is wrapped by API.Refresh when the provider
	// no longer accepts the refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
)

type Event struct {
	Kind    EventKind
	Session *Session
}

// User is the identity as reported by the provider. Name comes from the
// metadata given at sign-up and may be empty.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Session struct {
	User                  User      `json:"user"`
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// accessExpiryLeeway refreshes slightly ahead of the real expiry so a token
// does not expire in flight.
const accessExpiryLeeway = 10 * time.Second

func (s *Session) AccessExpired(now time.Time) bool {
	return !s.AccessTokenExpiresAt.After(now.Add(accessExpiryLeeway))
}

func (s *Session) RefreshExpired(now time.Time) bool {
	return !s.RefreshTokenExpiresAt.IsZero() && !s.RefreshTokenExpiresAt.After(now)
}

type SignUpParams struct {
	Email       string
	Password    string
	Name        string
	RedirectURL string
}

// API is the provider's remote surface.
type API interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, params SignUpParams) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}
