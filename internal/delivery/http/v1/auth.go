package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskflow/internal/services"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sessionResponse struct {
	User                  identityResponse `json:"user"`
	AccessToken           string           `json:"access_token"`
	AccessTokenExpiresAt  time.Time        `json:"access_token_expires_at"`
	RefreshToken          string           `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time        `json:"refresh_token_expires_at"`
}

func newSessionResponse(result *services.LoginResult) sessionResponse {
	return sessionResponse{
		User: identityResponse{
			ID:    result.User.ID,
			Email: result.User.Email,
			Name:  result.User.Name,
		},
		AccessToken:           result.AccessToken,
		AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
		RefreshToken:          result.RefreshToken,
		RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
	}
}

type signInRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleSignIn(c *gin.Context) {
	var req signInRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newInternalError())
		return
	}

	result, err := h.auth.SignIn(c, services.SignInParams{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign in")
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			abort(c, newUnauthorizedError("invalid login credentials"))
		default:
			abort(c, newInternalError())
		}
		return
	}

	setSessionCookies(c, result)
	c.JSON(http.StatusOK, newSessionResponse(result))
}

type signUpRequest struct {
	signInRequest
	Name        string `json:"name" form:"name" binding:"max=255"`
	RedirectURL string `json:"redirect_url" form:"redirect_url" binding:"omitempty,url"`
}

func (h *handlerImpl) HandleSignUp(c *gin.Context) {
	var req signUpRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("sign up request")

	if req.RedirectURL != "" {
		if u, err := url.Parse(req.RedirectURL); err != nil || !u.IsAbs() {
			abort(c, newBadRequestError("redirect url must be absolute"))
			return
		}
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newInternalError())
		return
	}

	result, err := h.auth.SignUp(c, services.SignUpParams{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		RedirectURL: req.RedirectURL,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign up")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
		default:
			abort(c, newInternalError())
		}
		return
	}

	setSessionCookies(c, result)
	c.JSON(http.StatusCreated, newSessionResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength > 0 {
		err := c.ShouldBindJSON(&req)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to bind json")
			abort(c, newBadRequestError(errInvalidRequestBody.Error()))
			return
		}
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		cookie, err := c.Cookie(refreshTokenCookie)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to get refresh token cookie")
			abort(c, newBadRequestError(errMandatoryCookieNotFound.Error()))
			return
		}
		refreshToken = cookie
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newInternalError())
		return
	}

	result, err := h.auth.Refresh(c, services.RefreshParams{
		RefreshToken: refreshToken,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to refresh session")
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			abort(c, newUnauthorizedError(services.ErrSessionNotFound.Error()))
		case errors.Is(err, services.ErrSessionExpired):
			abort(c, newUnauthorizedError(services.ErrSessionExpired.Error()))
		default:
			abort(c, newInternalError())
		}
		return
	}

	setSessionCookies(c, result)
	c.JSON(http.StatusOK, newSessionResponse(result))
}

func (h *handlerImpl) HandleSignOut(c *gin.Context) {
	userID, ok := h.mustUserID(c)
	if !ok {
		return
	}

	err := h.auth.SignOut(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign out")
		abort(c, newInternalError())
		return
	}

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)

	c.Status(http.StatusNoContent)
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func setSessionCookies(c *gin.Context, result *services.LoginResult) {
	now := time.Now()
	setAccessTokenCookie(c, result.AccessToken, result.AccessTokenExpiresAt.Sub(now))
	setRefreshTokenCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt.Sub(now))
}

func setAccessTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	// httpOnly must be false to allow client-side JavaScript
	// to read the cookie and send it in the Authorization header.
	const secure, httpOnly = false, false
	c.SetCookie(accessTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func setRefreshTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(refreshTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1,
		"/", "", false, false)
}
