package systemhandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/auth"
	"talenthub/internal/platform/jobs"
	"talenthub/internal/platform/metrics"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JobRunner runs a task synchronously and records the run.
type JobRunner interface {
	RunNow(ctx context.Context, jobType string, run jobs.Task) (any, error)
}

type Handler struct {
	DB      Pinger
	Metrics *metrics.Collector
	Perms   middleware.PermissionStore
	Started time.Time

	// Jobs and Tasks back the manual trigger for scheduled maintenance.
	Jobs  JobRunner
	Tasks map[string]jobs.Task
}

func NewHandler(db Pinger, collector *metrics.Collector, perms middleware.PermissionStore) *Handler {
	return &Handler{DB: db, Metrics: collector, Perms: perms, Started: time.Now()}
}

// RegisterPublicRoutes mounts the probes used by load balancers.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.Metrics != nil {
		r.With(middleware.RequirePermission(auth.PermMetricsRead, h.Perms)).Get("/system/metrics", h.handleMetrics)
	}
	if h.Jobs != nil {
		r.With(middleware.RequirePermission(auth.PermSystemManage, h.Perms)).Post("/system/jobs/{jobType}", h.handleRunJob)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not reachable", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]any{
		"uptimeSeconds": int64(time.Since(h.Started).Seconds()),
		"http":          h.Metrics.Snapshot(),
	}, middleware.GetRequestID(r.Context()))
}

// handleRunJob runs a scheduled task immediately, e.g. a retention sweep
// after changing policies.
func (h *Handler) handleRunJob(w http.ResponseWriter, r *http.Request) {
	jobType := chi.URLParam(r, "jobType")
	task, ok := h.Tasks[jobType]
	if !ok {
		api.Fail(w, http.StatusNotFound, "not_found", "unknown job type", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Jobs.RunNow(r.Context(), jobType, task)
	if err != nil {
		slog.Error("manual job failed", "jobType", jobType, "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_failed", "job failed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"jobType": jobType, "result": result}, middleware.GetRequestID(r.Context()))
}
