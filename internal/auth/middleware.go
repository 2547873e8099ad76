package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
)

// Middleware resolves the session into an authenticated principal and
// guards routes by role. Membership is checked against the directory on
// every request; authorization inputs are never cached across requests.
type Middleware struct {
	Dir    directory.Directory
	Logger *slog.Logger
}

// RequirePrincipal ensures a logged-in principal and stores it in context.
// Anonymous requests get a 401 challenge.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.Principal() == "" {
			shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		principal, err := m.Dir.FindByID(r.Context(), sess.Principal())
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// The account was deleted while the session lived on.
				shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if m.Logger != nil {
				m.Logger.Error("resolve principal", slog.Any("error", err))
			}
			shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
			return
		}
		if !principal.IsActive {
			shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), shared.PrincipalInfo{ID: principal.ID, Name: principal.Name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the current principal belongs to the named role.
// Mount after RequirePrincipal.
func (m Middleware) RequireRole(roleName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				shared.WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			role, err := m.Dir.FindRoleByName(r.Context(), roleName)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					shared.WriteError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
					return
				}
				if m.Logger != nil {
					m.Logger.Error("resolve role", slog.String("role", roleName), slog.Any("error", err))
				}
				shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
				return
			}
			isMember, err := m.Dir.IsMember(r.Context(), principal.ID, role.ID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("check membership", slog.String("role", roleName), slog.Any("error", err))
				}
				shared.WriteError(w, http.StatusInternalServerError, shared.UserSafeMessage(err))
				return
			}
			if !isMember {
				shared.WriteError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
