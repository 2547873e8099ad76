package principals

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/docgate/docgate/internal/audit"
	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
)

// Handler exposes the principal admin surface and the self-service
// profile routes as a JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	audit    audit.Recorder
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, recorder audit.Recorder) *Handler {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Handler{logger: logger, service: service, validate: validator.New(), audit: recorder}
}

// MountRoutes registers the admin routes. Callers guard them with the
// admin-role middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}", h.edit)
	r.Delete("/{id}", h.delete)
}

// MountProfileRoutes registers the authenticated self-service routes.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Get("/", h.profile)
	r.Post("/attributes", h.setAttributes)
}

type principalView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Attributes map[string]string `json:"attributes,omitempty"`
	IsActive   bool              `json:"is_active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func toView(p directory.Principal) principalView {
	return principalView{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Attributes: p.Attributes,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principals, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list principals", err)
		return
	}
	views := make([]principalView, len(principals))
	for i, p := range principals {
		views[i] = toView(p)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"principals": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get principal", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(*p))
}

type createForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createForm
	if !h.bind(w, r, &form) {
		return
	}
	created, verrs, err := h.service.Create(r.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		h.fail(w, "create principal", err)
		return
	}
	if len(verrs) > 0 {
		shared.WriteValidationErrors(w, verrs)
		return
	}
	h.record(r, "principal.create", created.ID)
	shared.WriteJSON(w, http.StatusCreated, toView(*created))
}

type editForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password"`
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	var form editForm
	if !h.bind(w, r, &form) {
		return
	}
	id := chi.URLParam(r, "id")
	verrs, err := h.service.Edit(r.Context(), id, form.Email, form.Password)
	if err != nil {
		h.fail(w, "edit principal", err)
		return
	}
	if len(verrs) > 0 {
		shared.WriteValidationErrors(w, verrs)
		return
	}
	h.record(r, "principal.edit", id)
	shared.WriteJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete principal", err)
		return
	}
	h.record(r, "principal.delete", id)
	shared.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	info, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	p, err := h.service.Get(r.Context(), info.ID)
	if err != nil {
		h.fail(w, "load profile", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(*p))
}

type attributesForm struct {
	City          string `json:"city" validate:"required"`
	Qualification string `json:"qualification" validate:"required"`
}

func (h *Handler) setAttributes(w http.ResponseWriter, r *http.Request) {
	info, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var form attributesForm
	if !h.bind(w, r, &form) {
		return
	}
	updated, err := h.service.SetAttributes(r.Context(), info.ID, map[string]string{
		directory.AttrCity:          form.City,
		directory.AttrQualification: form.Qualification,
	})
	if err != nil {
		h.fail(w, "set attributes", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(*updated))
}

// bind decodes and structurally validates a JSON body, reporting one
// message per rejected field.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, form any) bool {
	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "Request body is not valid JSON")
		return false
	}
	if err := h.validate.Struct(form); err != nil {
		var verrs shared.ValidationErrors
		for _, fieldErr := range err.(validator.ValidationErrors) {
			verrs = append(verrs, shared.ValidationError{
				Code:    "Required" + fieldErr.Field(),
				Message: fieldErr.Field() + " is required",
			})
		}
		shared.WriteValidationErrors(w, verrs)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		shared.WriteError(w, http.StatusNotFound, "Principal not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	if errors.Is(err, shared.ErrDirectoryUnavailable) {
		shared.WriteError(w, http.StatusServiceUnavailable, shared.UserSafeMessage(err))
		return
	}
	shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
}

func (h *Handler) record(r *http.Request, action, entityID string) {
	actor, _ := shared.PrincipalFromContext(r.Context())
	entry := audit.Entry{Actor: actor.Name, Action: action, Entity: "principal", EntityID: entityID}
	if err := h.audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
