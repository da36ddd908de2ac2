package session

import (
	"context"

	"github.com/adanyl0v/taskflow/internal/auth"
	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/remote"
)

// ensureProfile looks the profile up and creates it when missing. Failures
// are logged and fall back to what the identity itself carries, so signing
// in never fails because of the users table.
func (g *Gate) ensureProfile(ctx context.Context, identity auth.User) models.User {
	fallback := models.User{
		ID:    identity.ID,
		Name:  models.DisplayName(identity.Name, identity.Email),
		Email: identity.Email,
	}

	profile, err := g.profiles.SelectProfile(ctx, identity.ID)
	if err == nil {
		return mergeProfile(profile, fallback)
	}
	if !remote.IsNotFound(err) {
		g.logger.Error().
			Err(err).
			Str("user_id", identity.ID).
			Msg("failed to select profile")
		return fallback
	}

	created, err := g.profiles.InsertProfile(ctx, fallback)
	if err != nil {
		if remote.IsAlreadyExists(err) {
			g.logger.Debug().
				Str("user_id", identity.ID).
				Msg("profile already created")
			return fallback
		}

		g.logger.Error().
			Err(err).
			Str("user_id", identity.ID).
			Msg("failed to create profile")
		return fallback
	}

	g.logger.Info().
		Str("user_id", identity.ID).
		Msg("created profile")
	return mergeProfile(created, fallback)
}

func mergeProfile(profile, fallback models.User) models.User {
	if profile.ID == "" {
		profile.ID = fallback.ID
	}
	if profile.Name == "" {
		profile.Name = fallback.Name
	}
	if profile.Email == "" {
		profile.Email = fallback.Email
	}
	return profile
}
