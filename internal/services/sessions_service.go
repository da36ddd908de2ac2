package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the session
// statements below run inside or outside a sign-in transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type sessionServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
	now    func() time.Time
}

func NewSessionService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		pgPool: pgPool,
		now:    time.Now,
	}
}

// GetSessionByID backs the bearer middleware. A session whose refresh
// window has closed no longer authorizes access tokens issued for it.
func (s *sessionServiceImpl) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := selectSessionByID(ctx, s.pgPool, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, err
		}

		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to select session by id")
		return nil, err
	}

	if session.Expired(s.now()) {
		s.logger.Warn().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")
		return nil, ErrSessionExpired
	}
	return session, nil
}

const sessionColumns = `id,
       user_id,
       fingerprint,
       refresh_token,
       expires_at,
       created_at,
       updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Fingerprint,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return &session, err
}

func selectSessionByID(ctx context.Context, q querier, id string) (*models.Session, error) {
	return scanSession(q.QueryRow(ctx, `SELECT `+sessionColumns+`
FROM sessions
WHERE id = $1
`, id))
}

// selectSessionByRefreshToken only matches the device the token was
// issued to.
func selectSessionByRefreshToken(ctx context.Context, q querier, refreshToken, fingerprint string) (*models.Session, error) {
	return scanSession(q.QueryRow(ctx, `SELECT `+sessionColumns+`
FROM sessions
WHERE refresh_token = $1 AND
      fingerprint = $2
`, refreshToken, fingerprint))
}

func insertSession(ctx context.Context, q querier, session *models.Session) error {
	const query = `
INSERT INTO sessions (` + sessionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := q.Exec(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.Fingerprint,
		session.RefreshToken,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// rotateSession stores a new refresh token and expiry for an existing
// session.
func rotateSession(ctx context.Context, q querier, session *models.Session) error {
	const query = `
UPDATE sessions
SET refresh_token = $1,
    expires_at = $2,
    updated_at = $3
WHERE id = $4
`
	tag, err := q.Exec(
		ctx,
		query,
		session.RefreshToken,
		session.ExpiresAt,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// deleteUserSessions removes every session of the identity and reports how
// many there were.
func deleteUserSessions(ctx context.Context, q querier, userID string) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
