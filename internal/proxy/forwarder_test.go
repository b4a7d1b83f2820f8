package proxy

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/waroute/waroute/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForwardStripsPrefix(t *testing.T) {
	var gotPath, gotQuery string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	f := New(5*time.Second, testLogger())
	route := &domain.RouteConfig{TargetURL: backend.URL}

	req := httptest.NewRequest(http.MethodGet, "/proxy/items/5?limit=2", nil)
	rec := httptest.NewRecorder()

	if err := f.Forward(req.Context(), rec, req, route, "/proxy", nil, "5551234567"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if gotPath != "/items/5" {
		t.Errorf("forwarded path = %q, want /items/5", gotPath)
	}
	if gotQuery != "limit=2" {
		t.Errorf("forwarded query = %q, want limit=2", gotQuery)
	}
}

func TestForwardInjectsPhoneHeader(t *testing.T) {
	var gotPhone string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPhone = r.Header.Get(ForwardedPhoneHeader)
	}))
	defer backend.Close()

	f := New(5*time.Second, testLogger())
	route := &domain.RouteConfig{TargetURL: backend.URL}

	req := httptest.NewRequest(http.MethodGet, "/proxy/ping", nil)
	rec := httptest.NewRecorder()

	if err := f.Forward(req.Context(), rec, req, route, "/proxy", nil, "5551234567"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if gotPhone != "5551234567" {
		t.Errorf("%s = %q, want 5551234567", ForwardedPhoneHeader, gotPhone)
	}
}

func TestForwardPreservesMethodBodyHeaders(t *testing.T) {
	var gotMethod, gotBody, gotHeader string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotHeader = r.Header.Get("X-Custom")
	}))
	defer backend.Close()

	f := New(5*time.Second, testLogger())
	route := &domain.RouteConfig{TargetURL: backend.URL}

	body := `{"hello":"world"}`
	req := httptest.NewRequest(http.MethodPut, "/proxy/resource", strings.NewReader(body))
	req.Header.Set("X-Custom", "abc")
	req.Header.Set("Connection", "keep-alive")
	rec := httptest.NewRecorder()

	if err := f.Forward(req.Context(), rec, req, route, "/proxy", []byte(body), "555"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %q, want PUT", gotMethod)
	}
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
	if gotHeader != "abc" {
		t.Errorf("X-Custom = %q, want abc", gotHeader)
	}
}

func TestForwardStreamsResponseBack(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backend", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer backend.Close()

	f := New(5*time.Second, testLogger())
	route := &domain.RouteConfig{TargetURL: backend.URL}

	req := httptest.NewRequest(http.MethodGet, "/proxy/teapot", nil)
	rec := httptest.NewRecorder()

	if err := f.Forward(req.Context(), rec, req, route, "/proxy", nil, "555"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if got := rec.Body.String(); got != "short and stout" {
		t.Errorf("body = %q, want backend body", got)
	}
	if rec.Header().Get("X-Backend") != "yes" {
		t.Error("backend response header not forwarded")
	}
}

func TestForwardTargetWithBasePath(t *testing.T) {
	var gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer backend.Close()

	f := New(5*time.Second, testLogger())
	route := &domain.RouteConfig{TargetURL: backend.URL + "/api/v1/"}

	req := httptest.NewRequest(http.MethodGet, "/proxy/items", nil)
	rec := httptest.NewRecorder()

	if err := f.Forward(req.Context(), rec, req, route, "/proxy", nil, "555"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if gotPath != "/api/v1/items" {
		t.Errorf("forwarded path = %q, want /api/v1/items", gotPath)
	}
}

func TestForwardUpstreamDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close() // nothing listening anymore

	f := New(2*time.Second, testLogger())
	route := &domain.RouteConfig{TargetURL: backend.URL}

	req := httptest.NewRequest(http.MethodGet, "/proxy/ping", nil)
	rec := httptest.NewRecorder()

	err := f.Forward(req.Context(), rec, req, route, "/proxy", nil, "555")
	var re *domain.RouteError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want *domain.RouteError", err)
	}
	if re.Type != domain.ErrorTypeUpstreamUnavailable {
		t.Errorf("error type = %q, want upstream_unavailable", re.Type)
	}
	if rec.Body.Len() != 0 {
		t.Error("response body written despite upstream failure")
	}
}
