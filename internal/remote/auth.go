package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adanyl0v/taskflow/internal/auth"
)

var _ auth.API = (*Client)(nil)

type signInRow struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRow struct {
	signInRow
	Name        string `json:"name,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	var row sessionRow
	err := c.do(ctx, http.MethodPost, "/auth/signin", nil, "",
		signInRow{Email: email, Password: password}, &row)
	if err != nil {
		return nil, err
	}
	return sessionFromRow(row), nil
}

func (c *Client) SignUp(ctx context.Context, params auth.SignUpParams) (*auth.Session, error) {
	var row sessionRow
	err := c.do(ctx, http.MethodPost, "/auth/signup", nil, "", signUpRow{
		signInRow: signInRow{
			Email:    params.Email,
			Password: params.Password,
		},
		Name:        params.Name,
		RedirectURL: params.RedirectURL,
	}, &row)
	if err != nil {
		return nil, err
	}
	return sessionFromRow(row), nil
}

// Refresh wraps auth.ErrInvalidRefreshToken when the service rejects the
// token, so callers can tell a dead session from a transport failure.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	var row sessionRow
	err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, "", struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}, &row)
	if err != nil {
		if IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %w", auth.ErrInvalidRefreshToken, err)
		}
		return nil, err
	}
	return sessionFromRow(row), nil
}

// SignOut takes the token explicitly since the auth client holds its lock
// while signing out.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/signout", nil, accessToken, nil, nil)
}
