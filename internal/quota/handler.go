package quota

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/routes"
)

// Handler exposes cloud capacity over HTTP.
type Handler struct {
	gov    *Governor
	logger *slog.Logger
}

// Handler returns the HTTP handler for g.
func (g *Governor) Handler() *Handler {
	return &Handler{gov: g, logger: g.logger.With("handler", "quota")}
}

// Routes returns the route group for quota endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/quota",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Status},
		},
	}
}

// Status returns the current cloud capacity snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	s, err := h.gov.Status(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, s)
}
