package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWildcardDispatchPrefersSpecificRoutes(t *testing.T) {
	r := New()
	r.GET("/api/v1/runs/*/errors", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("errors"))
	})
	r.GET("/api/v1/runs/*", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("run"))
	})

	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/runs/abc/errors", "errors"},
		{"/api/v1/runs/abc", "run"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if got := rec.Body.String(); got != tc.want {
			t.Errorf("GET %s dispatched to %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMethodNotAllowedVsNotFound(t *testing.T) {
	r := New()
	r.POST("/api/v1/runs", func(w http.ResponseWriter, req *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/runs", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for wrong method, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestMountServesPrefix(t *testing.T) {
	r := New()
	r.Mount("/swagger/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("docs"))
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if !strings.Contains(rec.Body.String(), "docs") {
		t.Fatalf("mounted handler not invoked: %q", rec.Body.String())
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		path, pattern string
		want          bool
	}{
		{"/api/v1/runs/abc", "/api/v1/runs/*", true},
		{"/api/v1/runs/abc/errors", "/api/v1/runs/*", false},
		{"/api/v1/runs/abc/tables/deals", "/api/v1/runs/*/tables/*", true},
		{"/api/v1/runs", "/api/v1/runs/*", false},
	}
	for _, tc := range cases {
		if got := matchPattern(tc.path, tc.pattern); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.path, tc.pattern, got, tc.want)
		}
	}
}
