package profilehandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/profile"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

type Service interface {
	Submit(ctx context.Context, actor auth.UserContext, requested profile.Changes) (profile.Request, error)
	Get(ctx context.Context, actor auth.UserContext, requestID string) (profile.Request, error)
	List(ctx context.Context, actor auth.UserContext, filter profile.Filter) ([]profile.Request, int, error)
	Approve(ctx context.Context, actor auth.UserContext, requestID, note string) (profile.Request, error)
	Reject(ctx context.Context, actor auth.UserContext, requestID, note string) (profile.Request, error)
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
	r.Route("/profile/requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermProfileWrite, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermProfileWrite, h.Perms), middleware.Idempotent(h.Idempotency)).Post("/", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermProfileWrite, h.Perms)).Get("/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermProfileReview, h.Perms)).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermProfileReview, h.Perms)).Post("/{requestID}/reject", h.handleReject)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(profile.ErrNotFound),
	shared.Conflict(profile.ErrPendingExists),
	shared.BadRequest(profile.ErrNoChanges),
	shared.BadRequest(profile.ErrInvalidField),
	shared.Conflict(profile.ErrAlreadyReviewed),
	shared.Forbidden(profile.ErrForbidden),
	shared.BadRequest(profile.ErrNoteRequired),
}

type reviewPayload struct {
	Note string `json:"note"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var changes profile.Changes
	if !shared.DecodeJSON(w, r, &changes) {
		return
	}
	v := shared.NewValidator()
	if changes.FullName != nil {
		v.Required("fullName", *changes.FullName, "must not be empty")
		v.MaxLen("fullName", *changes.FullName, 200)
	}
	if changes.Summary != nil {
		v.MaxLen("summary", *changes.Summary, 4000)
	}
	if changes.DateOfBirth != nil && strings.TrimSpace(*changes.DateOfBirth) != "" {
		v.Date("dateOfBirth", *changes.DateOfBirth)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := h.Service.Submit(r.Context(), actor, changes)
	if err != nil {
		shared.WriteError(w, r, err, "failed to submit profile update", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "profile_request.submit", "profile_update_request", req.ID, nil, req.Changes); err != nil {
		slog.Warn("audit profile_request.submit failed", "err", err)
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := profile.Filter{
		UserID: strings.TrimSpace(r.URL.Query().Get("userId")),
		Status: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	items, total, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		shared.WriteError(w, r, err, "failed to list profile updates", errorMappings...)
		return
	}
	shared.WritePage(w, r, items, total, page)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	req, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load profile update", errorMappings...)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approve", h.Service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject", h.Service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, verb string, decide func(context.Context, auth.UserContext, string, string) (profile.Request, error)) {
	actor, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")
	var payload reviewPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.MaxLen("note", payload.Note, 2000)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	req, err := decide(r.Context(), actor, requestID, strings.TrimSpace(payload.Note))
	if err != nil {
		shared.WriteError(w, r, err, "failed to "+verb+" profile update", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "profile_request."+verb, "profile_update_request", requestID, req.Previous, req.Changes); err != nil {
		slog.Warn("audit profile review failed", "action", verb, "err", err)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}
