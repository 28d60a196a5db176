package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStripTrailingSlash(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := StripTrailingSlash(next)

	tests := []struct {
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"/posts/5/", http.StatusMovedPermanently, "/posts/5"},
		{"/posts/5/?page=2", http.StatusMovedPermanently, "/posts/5?page=2"},
		{"/posts/5", http.StatusOK, ""},
		{"/", http.StatusOK, ""},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		handler.ServeHTTP(w, r)

		if w.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.wantStatus)
		}
		if got := w.Header().Get("Location"); got != tt.wantLocation {
			t.Errorf("%s: Location = %q, want %q", tt.path, got, tt.wantLocation)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(false))(next)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got == "" {
		t.Error("X-Frame-Options should be set")
	}
	if got := w.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy should be set")
	}
}
