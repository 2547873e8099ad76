package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/docgate/docgate/internal/shared"
)

// Handler manages the authentication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions, csrf: csrf, validate: validator.New()}
}

// MountRoutes registers authentication routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

type loginForm struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "Request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "Name and password are required")
		return
	}
	principal, err := h.service.Authenticate(r.Context(), form.Name, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			shared.WriteError(w, http.StatusBadRequest, shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.WriteError(w, http.StatusInternalServerError, "Session unavailable")
		return
	}
	sess.SetPrincipal(principal.ID)
	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, "Session unavailable")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"principal":  map[string]string{"id": principal.ID, "name": principal.Name},
		"csrf_token": token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

// HandleLoginForTest exposes the login handler to package tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) { h.login(w, r) }

// HandleLogoutForTest exposes the logout handler to package tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) { h.logout(w, r) }
