package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/middleware"
)

func TestHealthPublic(t *testing.T) {
	app := newTestApp(t)
	h := NewHealthHandler(app.db, app.sm, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, RouteHealth, nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %v; want healthy", resp["status"])
	}

	// Anonymous callers get no detail fields.
	for _, field := range []string{"uptime", "checks", "timestamp", "system"} {
		if _, ok := resp[field]; ok {
			t.Errorf("public response should not contain %q", field)
		}
	}
}

func TestHealthAdminDetails(t *testing.T) {
	app := newTestApp(t)
	admin := createTestUser(t, app.queries, "root", "admin")
	h := NewHealthHandler(app.db, app.sm, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, RouteHealth+"?verbose=true", nil)
	ctx, err := app.sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	app.sm.Put(ctx, middleware.SessionKeyUserID, admin.ID)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	h.Health(w, req)

	assertStatus(t, w.Code, http.StatusOK)

	var resp HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q; want healthy", resp.Status)
	}
	if _, ok := resp.Checks["database"]; !ok {
		t.Error("admin response should include the database check")
	}
	if resp.System == nil {
		t.Error("verbose admin response should include system info")
	}
	if resp.System != nil && resp.System.GoVersion == "" {
		t.Error("system info should carry the Go version")
	}
}

func TestHealthNonAdminGetsPublicView(t *testing.T) {
	app := newTestApp(t)
	user := createTestUser(t, app.queries, "alice", "user")
	h := NewHealthHandler(app.db, app.sm, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, RouteHealth, nil)
	ctx, err := app.sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	app.sm.Put(ctx, middleware.SessionKeyUserID, user.ID)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	h.Health(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := resp["checks"]; ok {
		t.Error("regular users should get the public response")
	}
}
