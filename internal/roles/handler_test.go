package roles

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/docgate/docgate/internal/directory"
	_ "github.com/docgate/docgate/testing"
)

func newTestRouter(dir directory.Directory) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(dir), nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestCreateRoleEndpoint(t *testing.T) {
	r := newTestRouter(directory.NewInMemory())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Editors"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The same name again trips the uniqueness rule.
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"editors"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "DuplicateRoleName") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreateRoleRequiresName(t *testing.T) {
	r := newTestRouter(directory.NewInMemory())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestReconcileEndpointReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewInMemory()
	role, err := dir.CreateRole(ctx, "Editors")
	if err != nil {
		t.Fatalf("seed role: %v", err)
	}
	alice, err := dir.Create(ctx, directory.NewPrincipal{Name: "Alice", Email: "alice@example.com", Password: "Secret123$"})
	if err != nil {
		t.Fatalf("seed principal: %v", err)
	}
	r := newTestRouter(dir)

	body := `{"ids_to_add":["` + alice.ID + `","stale-id"]}`
	req := httptest.NewRequest(http.MethodPost, "/"+role.ID+"/members", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// A batch with a stale id still succeeds as a whole.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Outcomes []MembershipOutcome `json:"outcomes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(resp.Outcomes))
	}
	if !resp.Outcomes[0].Succeeded || resp.Outcomes[0].PrincipalID != alice.ID {
		t.Fatalf("unexpected first outcome: %+v", resp.Outcomes[0])
	}
	if !resp.Outcomes[1].Skipped {
		t.Fatalf("expected second outcome skipped: %+v", resp.Outcomes[1])
	}
}

func TestReconcileEndpointMissingRole(t *testing.T) {
	r := newTestRouter(directory.NewInMemory())
	req := httptest.NewRequest(http.MethodPost, "/no-such-role/members", strings.NewReader(`{"ids_to_add":["x"]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMembersEndpointPartition(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewInMemory()
	role, err := dir.CreateRole(ctx, "Editors")
	if err != nil {
		t.Fatalf("seed role: %v", err)
	}
	alice, err := dir.Create(ctx, directory.NewPrincipal{Name: "Alice", Email: "alice@example.com", Password: "Secret123$"})
	if err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	if _, err := dir.Create(ctx, directory.NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"}); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	if err := dir.AddMember(ctx, alice.ID, role.ID); err != nil {
		t.Fatalf("add member: %v", err)
	}
	r := newTestRouter(dir)

	req := httptest.NewRequest(http.MethodGet, "/"+role.ID+"/members", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Members    []memberView `json:"members"`
		NonMembers []memberView `json:"non_members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Members) != 1 || resp.Members[0].Name != "Alice" {
		t.Fatalf("unexpected members: %+v", resp.Members)
	}
	if len(resp.NonMembers) != 1 || resp.NonMembers[0].Name != "Bob" {
		t.Fatalf("unexpected non-members: %+v", resp.NonMembers)
	}
}
