package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskflow/internal/models"
	"github.com/adanyl0v/taskflow/internal/services"
)

type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

func newProfileResponse(user *models.User) profileResponse {
	resp := profileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if user.AvatarURL != "" {
		resp.AvatarURL = &user.AvatarURL
	}
	return resp
}

func (h *handlerImpl) HandleGetProfile(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	if c.Param("id") != userID {
		abort(c, newForbiddenError(errForeignUser.Error()))
		return
	}

	user, err := h.profiles.GetProfile(c, userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			abort(c, newNotFoundError(services.ErrProfileNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get profile")
		abort(c, newInternalError())
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(user))
}

type createProfileRequest struct {
	ID        string `json:"id" binding:"required"`
	Name      string `json:"name" binding:"max=255"`
	Email     string `json:"email" binding:"omitempty,email,max=255"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

func (h *handlerImpl) HandleCreateProfile(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	var req createProfileRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if req.ID != userID {
		abort(c, newForbiddenError(errForeignUser.Error()))
		return
	}

	user, err := h.profiles.CreateProfile(c, &models.User{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create profile")
		switch {
		case errors.Is(err, services.ErrProfileAlreadyExists):
			abort(c, newConflictError(services.ErrProfileAlreadyExists.Error()))
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newNotFoundError(services.ErrUserNotFound.Error()))
		default:
			abort(c, newInternalError())
		}
		return
	}

	c.JSON(http.StatusCreated, newProfileResponse(user))
}
