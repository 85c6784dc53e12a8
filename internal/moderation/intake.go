package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/JaimeStill/warden/internal/videos"
	"github.com/JaimeStill/warden/pkg/formatting"
	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/routes"
)

// headerSize is enough leading bytes for filetype to identify a container.
const headerSize = 262

// SubmitRequest registers an already-stored source file for moderation.
type SubmitRequest struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	SourcePath string    `json:"source_path"`
	Filename   string    `json:"filename,omitempty"`
}

// Handler accepts new jobs over HTTP.
type Handler struct {
	o             *Orchestrator
	maxSourceSize int64
	logger        *slog.Logger
}

// Handler returns the intake handler. Sources larger than maxSourceSize
// bytes are rejected; zero disables the limit.
func (o *Orchestrator) Handler(maxSourceSize int64) *Handler {
	return &Handler{
		o:             o,
		maxSourceSize: maxSourceSize,
		logger:        o.rt.Logger.With("handler", "intake"),
	}
}

// Routes returns the route group for job intake.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/videos",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Submit},
		},
	}
}

// Submit validates the source, creates a pending job and starts it.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidSource, err))
		return
	}

	if req.OwnerID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: owner_id required", ErrInvalidSource))
		return
	}

	if err := ValidateSource(req.SourcePath, h.maxSourceSize); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.SourcePath)
	}

	v, err := h.o.rt.Videos.Create(r.Context(), videos.CreateCommand{
		OwnerID:    req.OwnerID,
		Filename:   filename,
		SourcePath: req.SourcePath,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.o.Start(r.Context(), Job{ID: v.ID, OwnerID: v.OwnerID, SourcePath: v.SourcePath})
	handlers.RespondJSON(w, http.StatusAccepted, v)
}

// ValidateSource checks that path is a regular video file within maxSize bytes.
func ValidateSource(path string, maxSize int64) error {
	if path == "" {
		return fmt.Errorf("%w: source_path required", ErrInvalidSource)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidSource, path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf(
			"%w: %s exceeds %s",
			ErrSourceTooLarge,
			formatting.FormatBytes(info.Size(), 1),
			formatting.FormatBytes(maxSize, 1),
		)
	}

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: read header: %w", ErrInvalidSource, err)
	}
	if !filetype.IsVideo(head[:n]) {
		return fmt.Errorf("%w: %s is not a video", ErrInvalidSource, filepath.Base(path))
	}

	return nil
}
