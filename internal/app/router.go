package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/docgate/docgate/internal/auth"
	"github.com/docgate/docgate/internal/documents"
	"github.com/docgate/docgate/internal/principals"
	"github.com/docgate/docgate/internal/roles"
	"github.com/docgate/docgate/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	AuthMiddleware    auth.Middleware
	PrincipalsHandler *principals.Handler
	RolesHandler      *roles.Handler
	DocumentsHandler  *documents.Handler
}

// NewRouter constructs the chi.Router with docgate defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		// Tighter limit on credential guessing than the global one.
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.AuthHandler.MountRoutes(r)
	})

	adminRole := "Admins"
	if params.Config != nil && params.Config.AdminRole != "" {
		adminRole = params.Config.AdminRole
	}

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequirePrincipal)

		r.Route("/documents", params.DocumentsHandler.MountRoutes)
		r.Route("/profile", params.PrincipalsHandler.MountProfileRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireRole(adminRole))
			r.Route("/admin/principals", params.PrincipalsHandler.MountRoutes)
			r.Route("/admin/roles", params.RolesHandler.MountRoutes)
		})
	})

	return r
}
