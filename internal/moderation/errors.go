package moderation

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/warden/internal/videos"
)

var (
	// ErrProbe marks a failed transcode probe. It is fatal to the job.
	ErrProbe = errors.New("probe failed")
	// ErrThumbnail marks a failed thumbnail. It is logged and never fails the job.
	ErrThumbnail = errors.New("thumbnail failed")
	// ErrPersistence marks a verdict that could not be written, even minimally.
	ErrPersistence = errors.New("persist analysis failed")

	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrInvalidSource     = errors.New("invalid source video")
	ErrSourceTooLarge    = errors.New("source video exceeds size limit")
)

// MapHTTPStatus maps intake errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidSource):
		return http.StatusBadRequest
	case errors.Is(err, ErrSourceTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return videos.MapHTTPStatus(err)
	}
}
