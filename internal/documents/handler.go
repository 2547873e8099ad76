package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/docgate/docgate/internal/shared"
)

// Handler exposes the protected document surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers document routes. Callers guard them with the
// authenticated-principal middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{title}/edit", h.edit)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil {
		shared.WriteError(w, http.StatusBadRequest, "Invalid document title")
		return
	}
	decision, err := h.service.AuthorizeEdit(r.Context(), principal.Name, title)
	if err != nil {
		h.logger.Error("authorize edit", slog.Any("error", err))
		if errors.Is(err, shared.ErrDirectoryUnavailable) {
			shared.WriteError(w, http.StatusServiceUnavailable, shared.UserSafeMessage(err))
			return
		}
		shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
		return
	}
	if !decision.Succeeded {
		// The reason stays internal; a denied edit looks the same to the
		// user whether the document is missing or owned by someone else,
		// so resource existence never leaks.
		h.logger.Info("edit denied",
			slog.String("principal", principal.Name),
			slog.String("title", title),
			slog.String("reason", string(decision.Reason)))
		shared.WriteError(w, http.StatusForbidden, "You are not allowed to edit this document")
		return
	}
	doc, err := h.service.Get(r.Context(), title)
	if err != nil {
		h.logger.Error("load document", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, doc)
}
