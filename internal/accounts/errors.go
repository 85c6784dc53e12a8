package accounts

import (
	"errors"
	"net/http"
)

// Domain errors for account operations.
var (
	ErrNotFound          = errors.New("account not found")
	ErrDuplicate         = errors.New("account already exists")
	ErrInvalidPreference = errors.New("invalid analyzer preference")
	ErrInvalidAccount    = errors.New("invalid account")
	ErrQuotaFull         = errors.New("cloud analyzer capacity reached")
)

// MapHTTPStatus maps account domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrQuotaFull), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidPreference), errors.Is(err, ErrInvalidAccount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
