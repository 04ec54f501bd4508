package systemhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/auth"
	"talenthub/internal/platform/jobs"
	"talenthub/internal/platform/metrics"
	"talenthub/internal/transport/http/middleware"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func router(db Pinger, collector *metrics.Collector) http.Handler {
	h := NewHandler(db, collector, auth.StaticPermissions{})
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	h.RegisterRoutes(r)
	return r
}

func TestReadiness(t *testing.T) {
	rec := httptest.NewRecorder()
	router(fakePinger{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router(fakePinger{err: errors.New("down")}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsAdminOnly(t *testing.T) {
	collector := metrics.New()
	collector.Record("GET /api/v1/assessments", http.StatusOK, 3*time.Millisecond)
	h := router(fakePinger{}, collector)

	request := func(role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/system/metrics", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", RoleName: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := request(auth.RoleHR); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for HR, got %d", rec.Code)
	}
	rec := request(auth.RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data struct {
			HTTP metrics.Snapshot `json:"http"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.HTTP.RequestsTotal != 1 {
		t.Fatalf("unexpected snapshot %+v", env.Data.HTTP)
	}
}

type fakeRunner struct{ ran []string }

func (f *fakeRunner) RunNow(ctx context.Context, jobType string, run jobs.Task) (any, error) {
	f.ran = append(f.ran, jobType)
	return run(ctx)
}

func TestRunJob(t *testing.T) {
	runner := &fakeRunner{}
	h := NewHandler(fakePinger{}, nil, auth.StaticPermissions{})
	h.Jobs = runner
	h.Tasks = map[string]jobs.Task{
		"retention_sweep": func(context.Context) (any, error) { return map[string]int64{"sessions": 3}, nil },
		"broken":          func(context.Context) (any, error) { return nil, errors.New("boom") },
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	run := func(role, jobType string) int {
		req := httptest.NewRequest(http.MethodPost, "/system/jobs/"+jobType, nil)
		req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", RoleName: role}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	tests := []struct {
		name    string
		role    string
		jobType string
		status  int
	}{
		{name: "hr cannot trigger", role: auth.RoleHR, jobType: "retention_sweep", status: http.StatusForbidden},
		{name: "admin runs sweep", role: auth.RoleAdmin, jobType: "retention_sweep", status: http.StatusOK},
		{name: "unknown job", role: auth.RoleAdmin, jobType: "nope", status: http.StatusNotFound},
		{name: "failing job", role: auth.RoleAdmin, jobType: "broken", status: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := run(tc.role, tc.jobType); got != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, got)
			}
		})
	}
	if len(runner.ran) != 2 {
		t.Fatalf("expected two runs, got %v", runner.ran)
	}
}
