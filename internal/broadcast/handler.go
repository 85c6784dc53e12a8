package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/routes"
)

// Handler streams an owner's events as server-sent events.
type Handler struct {
	b         *Broadcaster
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewHandler creates the SSE handler. A zero heartbeat disables keepalives.
func NewHandler(b *Broadcaster, heartbeat time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		b:         b,
		heartbeat: heartbeat,
		logger:    logger.With("handler", "events"),
	}
}

// Routes returns the route group for event streams.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/events",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{ownerId}", Handler: h.Stream},
		},
	}
}

// Stream holds the connection open and writes each event for the owner.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	owner, err := uuid.Parse(r.PathValue("ownerId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("invalid owner ID"))
		return
	}

	rc := http.NewResponseController(w)
	// the server write timeout would cut the stream
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("clear write deadline failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error("flush failed", "error", err)
		return
	}

	sub := h.b.Subscribe(owner)
	defer sub.Close()

	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				h.logger.Debug("stream write failed", "owner_id", owner, "error", err)
				return
			}
		case <-tick:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		}

		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data)
	return err
}
