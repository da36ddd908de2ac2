package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskflow/internal/models"
)

type profileServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewProfileService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) ProfileService {
	return &profileServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{ID: userID}

	const selectProfileByIDQuery = `
SELECT name,
       email,
       COALESCE(avatar_url, ''),
       created_at
FROM users
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProfileByIDQuery,
		user.ID,
	).Scan(
		&user.Name,
		&user.Email,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().
				Str("user_id", user.ID).
				Msg("profile not found")
			return nil, ErrProfileNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to select profile by id")
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected profile")
	return user, nil
}

func (s *profileServiceImpl) CreateProfile(ctx context.Context, user *models.User) (*models.User, error) {
	user = &models.User{
		ID:        user.ID,
		Name:      models.DisplayName(user.Name, user.Email),
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		CreatedAt: time.Now(),
	}

	var avatarURL *string
	if user.AvatarURL != "" {
		avatarURL = &user.AvatarURL
	}

	const insertProfileQuery = `
INSERT INTO users (id,
                   name,
                   email,
                   avatar_url,
                   created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := s.pgPool.Exec(
		ctx,
		insertProfileQuery,
		user.ID,
		user.Name,
		user.Email,
		avatarURL,
		user.CreatedAt,
	)
	if err != nil {
		switch {
		case isPgError(err, pgerrcode.UniqueViolation):
			s.logger.Warn().
				Str("user_id", user.ID).
				Msg("profile already exists")
			return nil, ErrProfileAlreadyExists
		case isPgError(err, pgerrcode.ForeignKeyViolation):
			s.logger.Error().
				Str("user_id", user.ID).
				Msg("identity not found for profile")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to insert profile")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("created profile")
	return user, nil
}
