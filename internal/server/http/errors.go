package httpserver

import (
	"errors"
	"net/http"

	"github.com/and161185/gamestats/internal/convert"
	"github.com/and161185/gamestats/internal/errs"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorClass struct {
	status   int
	category string
	message  string // "" means use the error text
}

var errorClasses = []struct {
	target error
	class  errorClass
}{
	{errs.ErrAuthRequired, errorClass{http.StatusUnauthorized, "authentication_required", "Authentication required"}},
	{errs.ErrInvalidToken, errorClass{http.StatusUnauthorized, "invalid_token", "Invalid or expired token"}},
	{errs.ErrInvalidCredentials, errorClass{http.StatusUnauthorized, "invalid_credentials", "Invalid username or password"}},
	{errs.ErrInvalidStatsFormat, errorClass{http.StatusBadRequest, "invalid_stats_format", "Invalid stats format"}},
	{errs.ErrValidation, errorClass{http.StatusBadRequest, "validation_error", ""}},
	{errs.ErrMissingReference, errorClass{http.StatusNotFound, "not_found", "User or game not found"}},
	{errs.ErrNotFound, errorClass{http.StatusNotFound, "not_found", "Game not found"}},
	{errs.ErrConflict, errorClass{http.StatusConflict, "conflict", "Stats already exist for this game"}},
	{errs.ErrRateLimited, errorClass{http.StatusTooManyRequests, "rate_limited", "Too many failed login attempts"}},
}

var storageClass = errorClass{http.StatusInternalServerError, "storage_error", "Storage error"}

func classify(err error) errorClass {
	for _, ec := range errorClasses {
		if errors.Is(err, ec.target) {
			return ec.class
		}
	}
	return storageClass
}

func errorBody(category, message string) convert.ErrorResponse {
	return convert.ErrorResponse{Error: category, Message: message}
}

// abortWithError writes the structured error for err. Unclassified errors are
// logged and reported as storage_error without details.
func abortWithError(c *gin.Context, log *zap.Logger, err error) {
	ec := classify(err)
	msg := ec.message
	if msg == "" {
		msg = err.Error()
	}
	if ec.status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.Error(err),
			zap.String("route", c.FullPath()),
			zap.String("request_id", RequestIDFromCtx(c.Request.Context())),
		)
	}
	c.AbortWithStatusJSON(ec.status, errorBody(ec.category, msg))
}
