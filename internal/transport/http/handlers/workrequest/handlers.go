package workrequesthandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/workrequest"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, actor auth.UserContext, in workrequest.CreateInput) (workrequest.Request, error)
	Get(ctx context.Context, actor auth.UserContext, requestID string) (workrequest.Request, error)
	List(ctx context.Context, actor auth.UserContext, filter workrequest.Filter) (workrequest.ListResult, error)
	Approve(ctx context.Context, actor auth.UserContext, requestID string) (workrequest.Request, error)
	Reject(ctx context.Context, actor auth.UserContext, requestID, reason string) (workrequest.Request, error)
	Cancel(ctx context.Context, actor auth.UserContext, requestID string) (workrequest.Request, error)
	Calendar(ctx context.Context, actor auth.UserContext, filter workrequest.Filter) (string, error)
}

type Handler struct {
	Service     Service
	Perms       middleware.PermissionStore
	Audit       audit.Recorder
	Idempotency middleware.IdempotencyBackend
}

func NewHandler(service Service, perms middleware.PermissionStore, auditSvc audit.Recorder, idem middleware.IdempotencyBackend) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRequestsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermRequestsWrite, h.Perms), middleware.Idempotent(h.Idempotency)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermRequestsRead, h.Perms)).Get("/calendar.ics", h.handleCalendar)
		r.With(middleware.RequirePermission(auth.PermRequestsRead, h.Perms)).Get("/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermRequestsWrite, h.Perms)).Delete("/{requestID}", h.handleCancel)
		r.With(middleware.RequirePermission(auth.PermRequestsApprove, h.Perms)).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermRequestsApprove, h.Perms)).Post("/{requestID}/reject", h.handleReject)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(workrequest.ErrNotFound),
	shared.BadRequest(workrequest.ErrInvalidType),
	shared.BadRequest(workrequest.ErrInvalidRange),
	shared.BadRequest(workrequest.ErrHalfDaySpan),
	shared.BadRequest(workrequest.ErrNoWorkingDays),
	shared.BadRequest(workrequest.ErrReasonRequired),
	shared.BadRequest(workrequest.ErrRejectionReason),
	shared.Forbidden(workrequest.ErrForbidden),
	shared.Forbidden(workrequest.ErrSelfApproval),
	shared.Conflict(workrequest.ErrAlreadyDecided),
	shared.Conflict(workrequest.ErrOverlap),
}

type createPayload struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsHalfDay bool   `json:"isHalfDay"`
	Reason    string `json:"reason"`
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) filterFromQuery(w http.ResponseWriter, r *http.Request) (workrequest.Filter, bool) {
	query := r.URL.Query()
	v := shared.NewValidator()
	filter := workrequest.Filter{
		UserID: strings.TrimSpace(query.Get("userId")),
		Status: strings.ToUpper(strings.TrimSpace(query.Get("status"))),
		Type:   strings.ToUpper(strings.TrimSpace(query.Get("type"))),
	}
	if filter.Status != "" && !workrequest.ValidStatus(filter.Status) {
		v.Add("status", "must be PENDING, APPROVED or REJECTED")
	}
	if filter.Type != "" && !workrequest.ValidType(filter.Type) {
		v.Add("type", "must be one of "+strings.Join(workrequest.Types, ", "))
	}
	filter.From, filter.To = shared.QueryRange(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return workrequest.Filter{}, false
	}
	return filter, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	filter, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	result, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		shared.WriteError(w, r, err, "failed to list requests", errorMappings...)
		return
	}
	shared.WritePage(w, r, result.Items, result.Total, page)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload createPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	payload.Type = strings.ToUpper(strings.TrimSpace(payload.Type))

	v := shared.NewValidator()
	v.Required("type", payload.Type, "is required")
	v.Enum("type", payload.Type, workrequest.Types, "must be one of "+strings.Join(workrequest.Types, ", "))
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	v.MaxLen("reason", payload.Reason, 2000)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.Create(r.Context(), actor, workrequest.CreateInput{
		Type:      payload.Type,
		StartDate: start,
		EndDate:   end,
		IsHalfDay: payload.IsHalfDay,
		Reason:    strings.TrimSpace(payload.Reason),
	})
	if err != nil {
		shared.WriteError(w, r, err, "failed to create request", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "request.create", "work_request", req.ID, nil, req); err != nil {
		slog.Warn("audit request.create failed", "err", err)
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load request", errorMappings...)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.Approve(r.Context(), actor, requestID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to approve request", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "request.approve", "work_request", requestID, nil, req); err != nil {
		slog.Warn("audit request.approve failed", "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")
	var payload rejectPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("reason", payload.Reason, "is required")
	v.MaxLen("reason", payload.Reason, 2000)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	req, err := h.Service.Reject(r.Context(), actor, requestID, strings.TrimSpace(payload.Reason))
	if err != nil {
		shared.WriteError(w, r, err, "failed to reject request", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "request.reject", "work_request", requestID, nil, req); err != nil {
		slog.Warn("audit request.reject failed", "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")
	req, err := h.Service.Cancel(r.Context(), actor, requestID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to cancel request", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "request.cancel", "work_request", requestID, req, nil); err != nil {
		slog.Warn("audit request.cancel failed", "err", err)
	}
	api.Success(w, map[string]string{"id": requestID, "status": "CANCELLED"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	filter, ok := h.filterFromQuery(w, r)
	if !ok {
		return
	}
	body, err := h.Service.Calendar(r.Context(), actor, filter)
	if err != nil {
		shared.WriteError(w, r, err, "failed to build calendar", errorMappings...)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="requests.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Warn("write calendar failed", "err", err)
	}
}
