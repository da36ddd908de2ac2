package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of every error body.
const (
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeTokenExpired   = "token_expired"
	CodeForbidden      = "forbidden"
	CodeNotFound       = "not_found"
	CodeAlreadyExists  = "already_exists"
	CodeInternal       = "internal"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
	errNoFieldsToUpdate        = errors.New("no fields to update")
	errForeignUser             = errors.New("access to another user's data")
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newAPIError(status int, code, message string) apiError {
	return apiError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Status, err)
}

func newInternalError() apiError {
	return newAPIError(http.StatusInternalServerError, CodeInternal,
		http.StatusText(http.StatusInternalServerError))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, CodeInvalidRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func newTokenExpiredError() apiError {
	return newAPIError(http.StatusUnauthorized, CodeTokenExpired, "access token expired")
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, CodeForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, CodeNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, CodeAlreadyExists, message)
}
