package emailshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/emails"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

const defaultRetryAge = 5 * time.Minute

type Service interface {
	Send(ctx context.Context, to, subject, body string) emails.Log
	Resend(ctx context.Context, logID string) (emails.Log, error)
	RetryStale(ctx context.Context, age time.Duration) (int, error)
	ListLogs(ctx context.Context, filter emails.LogFilter) ([]emails.Log, int, error)
	GetLog(ctx context.Context, logID string) (emails.Log, error)
	ListTemplates(ctx context.Context) ([]emails.Template, error)
	GetTemplate(ctx context.Context, code string) (emails.Template, error)
	CreateTemplate(ctx context.Context, in emails.TemplateInput) (emails.Template, error)
	UpdateTemplate(ctx context.Context, code string, in emails.TemplateInput) (emails.Template, error)
	DeleteTemplate(ctx context.Context, code string) error
	Preview(ctx context.Context, code string, data map[string]string) (string, string, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service Service, perms middleware.PermissionStore, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/emails", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermEmailsManage, h.Perms))
		r.Get("/templates", h.handleListTemplates)
		r.Post("/templates", h.handleCreateTemplate)
		r.Get("/templates/{code}", h.handleGetTemplate)
		r.Put("/templates/{code}", h.handleUpdateTemplate)
		r.Delete("/templates/{code}", h.handleDeleteTemplate)
		r.Post("/templates/{code}/preview", h.handlePreview)
		r.Get("/logs", h.handleListLogs)
		r.Get("/logs/{logID}", h.handleGetLog)
		r.Post("/logs/{logID}/resend", h.handleResend)
		r.Post("/send", h.handleSend)
		r.Post("/retry", h.handleRetry)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(emails.ErrTemplateNotFound),
	shared.NotFound(emails.ErrLogNotFound),
	shared.Conflict(emails.ErrCodeTaken),
	shared.BadRequest(emails.ErrInvalidTemplate),
	shared.Conflict(emails.ErrNotFailed),
	shared.BadRequest(emails.ErrNoRecipient),
	shared.Conflict(emails.ErrNoContent),
}

type templatePayload struct {
	Code        string `json:"code"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Description string `json:"description"`
}

func decodeTemplate(w http.ResponseWriter, r *http.Request, requireCode bool) (emails.TemplateInput, bool) {
	var payload templatePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return emails.TemplateInput{}, false
	}
	v := shared.NewValidator()
	if requireCode {
		v.Required("code", payload.Code, "is required")
		v.MaxLen("code", payload.Code, 64)
	}
	v.Required("subject", payload.Subject, "is required")
	v.MaxLen("subject", payload.Subject, 255)
	v.Required("body", payload.Body, "is required")
	v.MaxLen("description", payload.Description, 500)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return emails.TemplateInput{}, false
	}
	return emails.TemplateInput{
		Code:        strings.TrimSpace(payload.Code),
		Subject:     payload.Subject,
		Body:        payload.Body,
		Description: strings.TrimSpace(payload.Description),
	}, true
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Service.ListTemplates(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "failed to list templates", errorMappings...)
		return
	}
	api.Success(w, templates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.Service.GetTemplate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load template", errorMappings...)
		return
	}
	api.Success(w, tpl, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	in, ok := decodeTemplate(w, r, true)
	if !ok {
		return
	}
	tpl, err := h.Service.CreateTemplate(r.Context(), in)
	if err != nil {
		shared.WriteError(w, r, err, "failed to create template", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "email_template.create", "email_template", tpl.Code, nil, tpl); err != nil {
		slog.Warn("audit email_template.create failed", "err", err)
	}
	api.Created(w, tpl, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	code := chi.URLParam(r, "code")
	in, ok := decodeTemplate(w, r, false)
	if !ok {
		return
	}
	tpl, err := h.Service.UpdateTemplate(r.Context(), code, in)
	if err != nil {
		shared.WriteError(w, r, err, "failed to update template", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "email_template.update", "email_template", code, nil, tpl); err != nil {
		slog.Warn("audit email_template.update failed", "err", err)
	}
	api.Success(w, tpl, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	code := chi.URLParam(r, "code")
	if err := h.Service.DeleteTemplate(r.Context(), code); err != nil {
		shared.WriteError(w, r, err, "failed to delete template", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "email_template.delete", "email_template", code, nil, nil); err != nil {
		slog.Warn("audit email_template.delete failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewPayload struct {
	Data map[string]string `json:"data"`
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var payload previewPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	subject, body, err := h.Service.Preview(r.Context(), chi.URLParam(r, "code"), payload.Data)
	if err != nil {
		shared.WriteError(w, r, err, "failed to render template", errorMappings...)
		return
	}
	api.Success(w, map[string]string{"subject": subject, "body": body}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !emails.ValidStatus(status) {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "status", Reason: "must be QUEUED, SENT or FAILED"}})
		return
	}
	logs, total, err := h.Service.ListLogs(r.Context(), emails.LogFilter{
		Status:    status,
		Recipient: strings.TrimSpace(r.URL.Query().Get("recipient")),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		shared.WriteError(w, r, err, "failed to list email logs", errorMappings...)
		return
	}
	shared.WritePage(w, r, logs, total, page)
}

func (h *Handler) handleGetLog(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.GetLog(r.Context(), chi.URLParam(r, "logID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load email log", errorMappings...)
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	logID := chi.URLParam(r, "logID")
	entry, err := h.Service.Resend(r.Context(), logID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to resend email", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "email.resend", "email_log", logID, nil, map[string]string{"status": entry.Status}); err != nil {
		slog.Warn("audit email.resend failed", "err", err)
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

type sendPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload sendPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("to", payload.To, "is required")
	v.Email("to", payload.To)
	v.Required("subject", payload.Subject, "is required")
	v.Required("body", payload.Body, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	entry := h.Service.Send(r.Context(), strings.TrimSpace(payload.To), payload.Subject, payload.Body)
	if err := h.Audit.Record(r.Context(), actor.UserID, "email.send", "email_log", entry.ID, nil, map[string]string{"recipient": entry.Recipient, "status": entry.Status}); err != nil {
		slog.Warn("audit email.send failed", "err", err)
	}
	api.Created(w, entry, middleware.GetRequestID(r.Context()))
}

type retryPayload struct {
	OlderThanMinutes int `json:"olderThanMinutes"`
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	var payload retryPayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	if payload.OlderThanMinutes < 0 {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "olderThanMinutes", Reason: "must not be negative"}})
		return
	}
	age := defaultRetryAge
	if payload.OlderThanMinutes > 0 {
		age = time.Duration(payload.OlderThanMinutes) * time.Minute
	}
	count, err := h.Service.RetryStale(r.Context(), age)
	if err != nil {
		shared.WriteError(w, r, err, "failed to retry queued emails", errorMappings...)
		return
	}
	api.Success(w, map[string]int{"requeued": count}, middleware.GetRequestID(r.Context()))
}
