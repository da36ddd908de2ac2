package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

type authServiceImpl struct {
	logger             zerolog.Logger
	pgPool             *pgxpool.Pool
	jwtIssuer          string
	jwtSigningKey      []byte
	jwtAccessTokenTTL  time.Duration
	jwtRefreshTokenTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	jwtIssuer string,
	jwtSigningKey []byte,
	jwtAccessTokenTTL time.Duration,
	jwtRefreshTokenTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:             logger,
		pgPool:             pgPool,
		jwtIssuer:          jwtIssuer,
		jwtSigningKey:      jwtSigningKey,
		jwtAccessTokenTTL:  jwtAccessTokenTTL,
		jwtRefreshTokenTTL: jwtRefreshTokenTTL,
	}
}

const identityColumns = `id,
       email,
       password,
       name,
       redirect_url,
       created_at,
       updated_at`

func scanIdentity(row pgx.Row) (*models.Identity, error) {
	var identity models.Identity
	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.Password,
		&identity.Name,
		&identity.RedirectURL,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &identity, err
}

func (s *authServiceImpl) SignIn(ctx context.Context, params SignInParams) (*LoginResult, error) {
	email := normalizeEmail(params.Email)

	identity, err := scanIdentity(s.pgPool.QueryRow(ctx, `SELECT `+identityColumns+`
FROM identities
WHERE email = $1
`, email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Warn().
				Str("email", email).
				Msg("identity not found")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to select identity by email")
		return nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(params.Password, identity.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", identity.ID).
			Msg("failed to compare password")
		return nil, err
	}
	if !match {
		s.logger.Warn().
			Str("user_id", identity.ID).
			Msg("password mismatch")
		return nil, ErrUserPasswordMismatch
	}

	var result *LoginResult
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		// One active session per identity.
		deleted, err := deleteUserSessions(ctx, tx, identity.ID)
		if err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		s.logger.Debug().
			Str("user_id", identity.ID).
			Int64("affected", deleted).
			Msg("replaced previous sessions")

		result, err = s.issueSession(ctx, tx, *identity, params.Fingerprint)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", identity.ID).
		Str("session_id", result.SessionID).
		Msg("signed in")
	return result, nil
}

func (s *authServiceImpl) SignUp(ctx context.Context, params SignUpParams) (*LoginResult, error) {
	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate identity uuid")
		return nil, err
	}

	hash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}

	now := time.Now()
	identity := models.Identity{
		ID:          id.String(),
		Email:       normalizeEmail(params.Email),
		Password:    hash,
		Name:        strings.TrimSpace(params.Name),
		RedirectURL: params.RedirectURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var result *LoginResult
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO identities (`+identityColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`,
			identity.ID,
			identity.Email,
			identity.Password,
			identity.Name,
			identity.RedirectURL,
			identity.CreatedAt,
			identity.UpdatedAt,
		)
		if err != nil {
			if isPgError(err, pgerrcode.UniqueViolation) {
				return ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to insert identity: %w", err)
		}

		result, err = s.issueSession(ctx, tx, identity, params.Fingerprint)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			s.logger.Warn().
				Str("email", identity.Email).
				Msg("identity with this email already exists")
		}
		return nil, err
	}

	s.logger.Info().
		Str("user_id", identity.ID).
		Str("session_id", result.SessionID).
		Str("redirect_url", identity.RedirectURL).
		Msg("signed up")
	return result, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error) {
	session, err := selectSessionByRefreshToken(ctx, s.pgPool, params.RefreshToken, params.Fingerprint)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn().Msg("refresh token does not match a session")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select session by refresh token")
		return nil, err
	}

	now := time.Now()
	if session.Expired(now) {
		s.logger.Warn().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}

	identity, err := scanIdentity(s.pgPool.QueryRow(ctx, `SELECT `+identityColumns+`
FROM identities
WHERE id = $1
`, session.UserID))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Msg("failed to select identity of session")
		return nil, err
	}

	session.RefreshToken, err = s.generateRefreshToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate refresh token")
		return nil, err
	}
	session.ExpiresAt = now.Add(s.jwtRefreshTokenTTL)
	session.UpdatedAt = now

	err = rotateSession(ctx, s.pgPool, session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to rotate session")
		return nil, err
	}

	result, err := s.loginResult(*identity, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", session.UserID).
		Str("session_id", session.ID).
		Msg("refreshed session")
	return result, nil
}

func (s *authServiceImpl) SignOut(ctx context.Context, userID string) error {
	deleted, err := deleteUserSessions(ctx, s.pgPool, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete sessions by user id")
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("sessions", deleted).
		Msg("signed out")
	return nil
}

func (s *authServiceImpl) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	return claims, nil
}

// inTx runs fn in a transaction that is committed only if fn succeeds.
func (s *authServiceImpl) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = fn(tx)
	if err != nil {
		if !errors.Is(err, ErrUserAlreadyExists) {
			s.logger.Error().
				Err(err).
				Msg("transaction failed")
		}
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	return nil
}

// issueSession inserts a new session for the identity and returns the
// token pair bound to it.
func (s *authServiceImpl) issueSession(
	ctx context.Context,
	q querier,
	identity models.Identity,
	fingerprint string,
) (*LoginResult, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session uuid: %w", err)
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:           id.String(),
		UserID:       identity.ID,
		Fingerprint:  fingerprint,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.jwtRefreshTokenTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = insertSession(ctx, q, session)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")

	return s.loginResult(identity, session)
}

func (s *authServiceImpl) loginResult(identity models.Identity, session *models.Session) (*LoginResult, error) {
	accessToken, accessTokenExpiresAt, err := s.generateAccessToken(session.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to generate access token")
		return nil, err
	}

	identity.Password = ""
	return &LoginResult{
		User:                  identity,
		SessionID:             session.ID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) generateRefreshToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func (s *authServiceImpl) generateAccessToken(sessionID string) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtAccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    s.jwtIssuer,
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
