package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	_ "github.com/docgate/docgate/testing"
)

func newManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "docgate_session", "test-secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.SetPrincipal("principal-1")
	sess.Set("k", "v")

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sm.CookieName() {
		t.Fatalf("expected a session cookie, got %+v", cookies)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Principal() != "principal-1" {
		t.Fatalf("expected principal-1, got %q", loaded.Principal())
	}
	if loaded.Get("k") != "v" {
		t.Fatalf("expected stored value, got %q", loaded.Get("k"))
	}
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sm.Destroy(sess)

	rec := httptest.NewRecorder()
	if err := sm.Commit(ctx, rec, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expired cookie, got %+v", cookies)
	}
}

func TestCSRFTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "session-1"}

	token, err := m.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	// Stable for the life of the session.
	again, err := m.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again != token {
		t.Fatalf("token changed: %q vs %q", token, again)
	}

	if err := m.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := m.VerifyToken(ctx, sess, "forged"); err == nil {
		t.Fatal("expected mismatch error")
	}
	if err := m.VerifyToken(ctx, sess, ""); err == nil {
		t.Fatal("expected missing-token error")
	}
	if err := m.VerifyToken(ctx, &Session{ID: "fresh"}, token); err == nil {
		t.Fatal("expected missing-token error for tokenless session")
	}
}
