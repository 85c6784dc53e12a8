package videos

import (
	"errors"
	"net/http"
)

// Domain errors for video operations.
var (
	ErrNotFound     = errors.New("video not found")
	ErrDuplicate    = errors.New("video already exists")
	ErrNotActive    = errors.New("video is not active")
	ErrInvalidVideo = errors.New("invalid video")
	ErrNoThumbnail  = errors.New("video has no thumbnail")
)

// MapHTTPStatus maps video domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoThumbnail):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidVideo):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
