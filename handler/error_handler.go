package handler

import (
	"errors"
	"net/http"
	"workforce-api/common"
	"workforce-api/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// serviceError maps service rejections to client errors. Anything else is
// an internal failure reported with fallback.
func serviceError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return common.NewAppError(http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, service.ErrEmployeeNotFound), errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrDuplicateSubmission),
		errors.Is(err, service.ErrEmployeeCodeTaken),
		errors.Is(err, service.ErrEmailTaken):
		return common.NewAppError(http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrTooManyDuplicateAttempts):
		return common.NewAppError(http.StatusTooManyRequests, err.Error(), nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
