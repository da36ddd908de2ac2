package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/taskflow/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrTaskNotFound         = errors.New("task not found")
	ErrEmptyTaskTitle       = errors.New("task title is empty")
)

type AuthService interface {
	// SignIn authenticates the identity by email and password.
	//
	// It deletes all sessions with the same identity ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the identity with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the stored hash.
	SignIn(ctx context.Context, params SignInParams) (*LoginResult, error)

	// SignUp registers an identity with the given email and password.
	//
	// The name is kept as identity metadata and later used to
	// backfill the profile. The redirect URL is stored for the
	// email confirmation flow.
	//
	// It returns ErrUserAlreadyExists if the identity
	// with the given email already exists.
	SignUp(ctx context.Context, params SignUpParams) (*LoginResult, error)

	// Refresh rotates the refresh token of the session.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// SignOut invalidates all sessions with the given identity ID.
	SignOut(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type ProfileService interface {
	// GetProfile returns ErrProfileNotFound when no profile row exists.
	GetProfile(ctx context.Context, userID string) (*models.User, error)

	// CreateProfile returns ErrProfileAlreadyExists when a row with the
	// same ID already exists.
	CreateProfile(ctx context.Context, user *models.User) (*models.User, error)
}

type TaskService interface {
	// CreateTask inserts a pending task. A zero due date is
	// replaced with models.DefaultDueDate.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTasksByUserID returns the tasks of the user in insertion order.
	GetTasksByUserID(ctx context.Context, userID string) ([]*models.Task, error)

	// UpdateTask sets the non-nil fields of params. It returns
	// ErrTaskNotFound if the task doesn't exist or belongs to
	// another user.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	DeleteTask(ctx context.Context, params DeleteTaskParams) error
}

type SignInParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type SignUpParams struct {
	Email       string
	Password    string
	Name        string
	RedirectURL string
	Fingerprint string
}

type LoginResult struct {
	User                  models.Identity
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateTaskParams struct {
	UserID  string
	Title   string
	DueDate time.Time
}

type UpdateTaskParams struct {
	ID        string
	UserID    string
	Title     *string
	DueDate   *time.Time
	Completed *bool
}

type DeleteTaskParams struct {
	ID     string
	UserID string
}
