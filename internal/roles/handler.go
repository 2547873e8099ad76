package roles

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

// Handler exposes role administration as a JSON API.
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

// MountRoutes registers role routes. Callers guard them with the
// admin-role middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/members", h.members)
	r.Post("/{id}/members", h.reconcile)
}

type roleView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rolesList, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, "list roles", err)
		return
	}
	views := make([]roleView, len(rolesList))
	for i, role := range rolesList {
		names, err := h.service.MemberNames(r.Context(), role.ID)
		if err != nil {
			h.fail(w, "list role members", err)
			return
		}
		if names == nil {
			names = []string{}
		}
		views[i] = roleView{ID: role.ID, Name: role.Name, Members: names, CreatedAt: role.CreatedAt}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"roles": views})
}

type createRoleForm struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createRoleForm
	if !h.bind(w, r, &form) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), form.Name)
	if err != nil {
		if verrs, ok := shared.AsValidationErrors(err); ok {
			shared.WriteValidationErrors(w, verrs)
			return
		}
		h.fail(w, "create role", err)
		return
	}
	h.record(r, "role.create", role.ID)
	shared.WriteJSON(w, http.StatusCreated, roleView{ID: role.ID, Name: role.Name, Members: []string{}, CreatedAt: role.CreatedAt})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.fail(w, "delete role", err)
		return
	}
	h.record(r, "role.delete", id)
	shared.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type memberView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func memberViews(principals []directory.Principal) []memberView {
	out := make([]memberView, len(principals))
	for i, p := range principals {
		out[i] = memberView{ID: p.ID, Name: p.Name, Email: p.Email}
	}
	return out
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	members, nonMembers, err := h.service.MembersAndNonMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "partition members", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"members":     memberViews(members),
		"non_members": memberViews(nonMembers),
	})
}

type reconcileForm struct {
	IDsToAdd    []string `json:"ids_to_add"`
	IDsToRemove []string `json:"ids_to_remove"`
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var form reconcileForm
	if !h.bind(w, r, &form) {
		return
	}
	id := chi.URLParam(r, "id")
	outcomes, err := h.service.Reconcile(r.Context(), id, form.IDsToAdd, form.IDsToRemove)
	if err != nil {
		h.fail(w, "reconcile members", err)
		return
	}
	h.record(r, "role.members.reconcile", id)
	// Partial failure still returns the full outcome list; the flattened
	// error list is what an admin screen shows.
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"outcomes": outcomes,
		"errors":   FlattenErrors(outcomes),
	})
}

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
		shared.WriteError(w, http.StatusNotFound, "Role not found")
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
	entry := audit.Entry{Actor: actor.Name, Action: action, Entity: "role", EntityID: entityID}
	if err := h.audit.Record(r.Context(), entry); err != nil {
		h.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
