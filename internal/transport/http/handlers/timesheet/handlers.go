package timesheethandler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/timesheet"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Service interface {
	ForUser(ctx context.Context, actor auth.UserContext, userID string, r timesheet.Range) (timesheet.Sheet, error)
	ForTeam(ctx context.Context, actor auth.UserContext, teamID string, r timesheet.Range) (timesheet.Sheet, error)
	ExportUser(ctx context.Context, actor auth.UserContext, userID string, r timesheet.Range) (*bytes.Buffer, string, error)
	ExportTeam(ctx context.Context, actor auth.UserContext, teamID string, r timesheet.Range) (*bytes.Buffer, string, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/timesheets", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermTimesheetRead, h.Perms))
			r.Get("/me", h.handleMe)
			r.Get("/me/export", h.handleMeExport)
			r.Get("/users/{userID}", h.handleUser)
			r.Get("/users/{userID}/export", h.handleUserExport)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermTimesheetRead, h.Perms, auth.PermTimesheetTeam))
			r.Get("/teams/{teamID}", h.handleTeam)
			r.Get("/teams/{teamID}/export", h.handleTeamExport)
		})
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.BadRequest(timesheet.ErrInvalidRange),
	shared.Forbidden(timesheet.ErrForbidden),
	shared.NotFound(timesheet.ErrNotFound),
}

// rangeFromQuery defaults to the current month when from/to are omitted.
func (h *Handler) rangeFromQuery(w http.ResponseWriter, r *http.Request) (timesheet.Range, bool) {
	v := shared.NewValidator()
	from, to := shared.QueryRange(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return timesheet.Range{}, false
	}
	month := timesheet.MonthRange(h.Now().UTC())
	if from.IsZero() && to.IsZero() {
		return month, true
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(from.Year(), from.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	rng, err := timesheet.NewRange(from, to)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", "date range must be ordered and at most a year long", middleware.GetRequestID(r.Context()))
		return timesheet.Range{}, false
	}
	return rng, true
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	h.serveUser(w, r, actor.UserID)
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	h.serveUser(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) serveUser(w http.ResponseWriter, r *http.Request, userID string) {
	actor, _ := middleware.GetUser(r.Context())
	rng, ok := h.rangeFromQuery(w, r)
	if !ok {
		return
	}
	sheet, err := h.Service.ForUser(r.Context(), actor, userID, rng)
	if err != nil {
		shared.WriteError(w, r, err, "failed to build timesheet", errorMappings...)
		return
	}
	api.Success(w, sheet, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	rng, ok := h.rangeFromQuery(w, r)
	if !ok {
		return
	}
	sheet, err := h.Service.ForTeam(r.Context(), actor, chi.URLParam(r, "teamID"), rng)
	if err != nil {
		shared.WriteError(w, r, err, "failed to build team timesheet", errorMappings...)
		return
	}
	api.Success(w, sheet, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMeExport(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	h.exportUser(w, r, actor.UserID)
}

func (h *Handler) handleUserExport(w http.ResponseWriter, r *http.Request) {
	h.exportUser(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) exportUser(w http.ResponseWriter, r *http.Request, userID string) {
	actor, _ := middleware.GetUser(r.Context())
	rng, ok := h.rangeFromQuery(w, r)
	if !ok {
		return
	}
	buf, name, err := h.Service.ExportUser(r.Context(), actor, userID, rng)
	if err != nil {
		shared.WriteError(w, r, err, "failed to export timesheet", errorMappings...)
		return
	}
	writeWorkbook(w, buf, name)
}

func (h *Handler) handleTeamExport(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	rng, ok := h.rangeFromQuery(w, r)
	if !ok {
		return
	}
	buf, name, err := h.Service.ExportTeam(r.Context(), actor, chi.URLParam(r, "teamID"), rng)
	if err != nil {
		shared.WriteError(w, r, err, "failed to export team timesheet", errorMappings...)
		return
	}
	writeWorkbook(w, buf, name)
}

func writeWorkbook(w http.ResponseWriter, buf *bytes.Buffer, name string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write timesheet export failed", "err", err)
	}
}
