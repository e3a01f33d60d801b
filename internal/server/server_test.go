package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/me/asilo/internal/config"
	"github.com/me/asilo/internal/patients"
	"github.com/me/asilo/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func intPtr(n int) *int { return &n }

var testPatients = []model.Patient{
	{ID: 1, FirstName: "Ana", LastName: "Ruiz", Email: "ana@x.com", Phone: "111", Age: intPtr(80), Address: &model.Address{City: "Lima"}},
	{ID: 2, FirstName: "Bob", LastName: "Paz", Email: "bob@y.com", Phone: "222"},
}

func testServerWith(t *testing.T, fetcher patients.Fetcher) *Server {
	t.Helper()
	srv := New(config.Default(), fetcher, testLogger())
	t.Cleanup(srv.Close)
	return srv
}

func testServer(t *testing.T) *Server {
	return testServerWith(t, patients.FetcherFunc(func(ctx context.Context) ([]model.Patient, error) {
		return testPatients, nil
	}))
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Error     *model.APIError `json:"error"`
}

func doRequest(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("GET %s: invalid JSON: %v", path, err)
		}
	}
	return w, env
}

func doGet(t *testing.T, srv *Server, path string) envelope {
	t.Helper()
	w, env := doRequest(t, srv, path)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: status=%d, want 200, body=%s", path, w.Code, w.Body.String())
	}
	return env
}

func TestDiscovery(t *testing.T) {
	srv := testServer(t)
	env := doGet(t, srv, "/api/v1/")
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data struct {
		Name      string `json:"name"`
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Name != "Asilo API" {
		t.Errorf("name = %q, want Asilo API", data.Name)
	}
	var paths []string
	for _, e := range data.Endpoints {
		paths = append(paths, e.Path)
	}
	for _, want := range []string{"/api/v1/patients", "/api/v1/health", "/metrics"} {
		found := false
		for _, p := range paths {
			found = found || p == want
		}
		if !found {
			t.Errorf("endpoints %v missing %s", paths, want)
		}
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	env := doGet(t, srv, "/api/v1/health")

	var data struct {
		Status       string `json:"status"`
		Version      string `json:"version"`
		GoVersion    string `json:"go_version"`
		MountedViews int    `json:"mounted_views"`
		Directory    string `json:"directory"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", data.Status)
	}
	if data.Version != Version {
		t.Errorf("version = %q, want %s", data.Version, Version)
	}
	if data.Directory != "https://dummyjson.com/users?limit=50" {
		t.Errorf("directory = %q", data.Directory)
	}
	if data.MountedViews != 0 {
		t.Errorf("mounted_views = %d, want 0", data.MountedViews)
	}
}

func TestListPatients(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		query   string
		matched int
	}{
		{"", 2},
		{"ana", 1},
		{"LIMA", 1},
		{"@y.com", 1},
		{"zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := doGet(t, srv, "/api/v1/patients?q="+tt.query)
			var list model.PatientList
			if err := json.Unmarshal(env.Data, &list); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if list.Query != tt.query {
				t.Errorf("query = %q, want %q", list.Query, tt.query)
			}
			if list.Total != 2 {
				t.Errorf("total = %d, want 2", list.Total)
			}
			if list.Matched != tt.matched || len(list.Patients) != tt.matched {
				t.Errorf("matched = %d (%d patients), want %d", list.Matched, len(list.Patients), tt.matched)
			}
			if list.Patients == nil {
				t.Error("patients is null, want a list")
			}
		})
	}
}

func TestListPatients_UpstreamFailure(t *testing.T) {
	srv := testServerWith(t, patients.FetcherFunc(func(ctx context.Context) ([]model.Patient, error) {
		return nil, errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
	}))

	w, env := doRequest(t, srv, "/api/v1/patients")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want 502", w.Code)
	}
	if env.Status != "error" {
		t.Errorf("status = %q, want error", env.Status)
	}
	if env.Error == nil || env.Error.Code != model.ErrUpstream {
		t.Fatalf("error = %v, want UPSTREAM_ERROR", env.Error)
	}
	if env.Error.Message != patients.GenericLoadError {
		t.Errorf("message = %q, want generic message", env.Error.Message)
	}
	if strings.Contains(w.Body.String(), "refused") {
		t.Error("transport detail leaked into response")
	}
}

func TestListPatients_ClientGone(t *testing.T) {
	started := make(chan struct{})
	srv := testServerWith(t, patients.FetcherFunc(func(ctx context.Context) ([]model.Patient, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/patients", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.ServeHTTP(w, req)
		close(done)
	}()

	<-started
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the client went away")
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want nothing written", w.Body.String())
	}
}

func TestAPINotFound(t *testing.T) {
	srv := testServer(t)
	w, env := doRequest(t, srv, "/api/v1/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %v, want NOT_FOUND", env.Error)
	}
}

func TestUINotFound(t *testing.T) {
	srv := testServer(t)
	w, _ := doRequest(t, srv, "/otra-cosa")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Ruta no encontrada.") {
		t.Error("not found page missing message")
	}
}

func TestDashboardMountsView(t *testing.T) {
	srv := testServer(t)
	w, _ := doRequest(t, srv, "/pacientes")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if n := srv.Registry().Len(); n != 1 {
		t.Errorf("mounted views = %d, want 1", n)
	}
}

func TestMetrics(t *testing.T) {
	srv := testServer(t)
	doGet(t, srv, "/api/v1/patients")

	w, _ := doRequest(t, srv, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`asilo_patient_loads_total{outcome="success"} 1`,
		"asilo_patient_load_duration_seconds_count 1",
		"asilo_mounted_views",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	srv := New(cfg, patients.FetcherFunc(func(ctx context.Context) ([]model.Patient, error) {
		return nil, nil
	}), testLogger())
	t.Cleanup(srv.Close)

	w, _ := doRequest(t, srv, "/metrics")
	if w.Code != http.StatusNotFound {
		t.Errorf("status=%d, want 404", w.Code)
	}
}

func TestResponseEnvelope_HasRequestID(t *testing.T) {
	srv := testServer(t)
	env := doGet(t, srv, "/api/v1/health")
	if !strings.HasPrefix(env.RequestID, "req_") {
		t.Errorf("request_id = %q, want req_ prefix", env.RequestID)
	}
	if env.Timestamp == "" {
		t.Error("timestamp is empty")
	}
}

func TestResponseEnvelope_XRequestIDHeader(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	xReqID := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(xReqID, "req_") {
		t.Errorf("X-Request-ID header = %q, want req_ prefix", xReqID)
	}
}

func TestRecoverJSON_PanicBecomesInternalError(t *testing.T) {
	h := requestIDMiddleware(recoverJSON(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("body leaks panic value: %s", w.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != model.StatusError {
		t.Errorf("status = %q, want error", env.Status)
	}
	if env.Error == nil || env.Error.Code != model.ErrInternal {
		t.Fatalf("error = %+v, want INTERNAL_ERROR", env.Error)
	}
	if env.RequestID == "" || env.RequestID != w.Header().Get("X-Request-ID") {
		t.Errorf("request_id = %q, header = %q", env.RequestID, w.Header().Get("X-Request-ID"))
	}
}
