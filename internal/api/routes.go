package api

import (
	"net/http"

	"github.com/JaimeStill/warden/internal/broadcast"
	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) {
	patterns := routes.Register(
		mux,
		domain.Videos.Handler().Routes(),
		domain.Moderation.Handler(cfg.API.MaxSourceSizeBytes()).Routes(),
		domain.Accounts.Handler().Routes(),
		domain.Quota.Handler().Routes(),
		broadcast.NewHandler(domain.Broadcast, cfg.Broadcast.HeartbeatDuration(), runtime.Logger).Routes(),
	)
	runtime.Logger.Debug("routes registered", "base_path", cfg.API.BasePath, "routes", patterns)
}
