package api

import (
	"errors"
	"net/http"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// httpStatusFromDomainError maps domain error types onto HTTP status codes.
// Unrecognized errors come back as 500 so internals never surface with a
// misleading client-fault status.
func httpStatusFromDomainError(err error) int {
	switch {
	case isA[*domain.NotFoundError](err):
		return http.StatusNotFound
	case isA[*domain.AccessDeniedError](err):
		return http.StatusForbidden
	case isA[*domain.ValidationError](err), isA[*domain.FormulaError](err):
		return http.StatusBadRequest
	case isA[*domain.ConflictError](err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
