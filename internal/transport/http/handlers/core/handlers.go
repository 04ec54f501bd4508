package corehandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/core"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

type Service interface {
	ListUsers(ctx context.Context, filter core.UserFilter) ([]core.User, int, error)
	GetUser(ctx context.Context, userID string) (core.User, error)
	CreateUser(ctx context.Context, in core.CreateUserInput) (core.User, error)
	ResendVerification(ctx context.Context, userID string) error
	UpdateUser(ctx context.Context, userID string, in core.UpdateUserInput) (core.User, core.User, error)
	ListBands(ctx context.Context) ([]core.CareerBand, error)
	CreateBand(ctx context.Context, band core.CareerBand) (core.CareerBand, error)
	UpdateBand(ctx context.Context, bandID string, band core.CareerBand) (core.CareerBand, error)
	DeleteBand(ctx context.Context, bandID string) error
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
	r.Get("/me", h.handleMe)
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/{userID}", h.handleGetUser)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Patch("/{userID}", h.handleUpdateUser)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/{userID}/resend-verification", h.handleResendVerification)
	})
	r.Route("/bands", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleListBands)
		r.With(middleware.RequirePermission(auth.PermBandsWrite, h.Perms)).Post("/", h.handleCreateBand)
		r.With(middleware.RequirePermission(auth.PermBandsWrite, h.Perms)).Put("/{bandID}", h.handleUpdateBand)
		r.With(middleware.RequirePermission(auth.PermBandsWrite, h.Perms)).Delete("/{bandID}", h.handleDeleteBand)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(core.ErrNotFound),
	shared.Conflict(core.ErrEmailTaken),
	shared.Conflict(core.ErrBandCodeTaken),
	shared.Conflict(core.ErrBandInUse),
	shared.BadRequest(core.ErrInvalidRole),
	shared.BadRequest(core.ErrInvalidStatus),
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	me, err := h.Service.GetUser(r.Context(), user.UserID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to load profile", errorMappings...)
		return
	}
	api.Success(w, me, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	filter := core.UserFilter{
		Search: strings.TrimSpace(query.Get("q")),
		Role:   strings.ToUpper(query.Get("role")),
		Status: strings.ToUpper(query.Get("status")),
		TeamID: query.Get("teamId"),
		BandID: query.Get("bandId"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	users, total, err := h.Service.ListUsers(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, r, err, "failed to list users", errorMappings...)
		return
	}
	for i := range users {
		core.FilterUserFields(&users[i], user)
	}
	shared.WritePage(w, r, users, total, page)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	viewer, _ := middleware.GetUser(r.Context())
	found, err := h.Service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load user", errorMappings...)
		return
	}
	core.FilterUserFields(&found, viewer)
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

type createUserPayload struct {
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	JobTitle     string `json:"jobTitle"`
	Role         string `json:"role"`
	CareerBandID string `json:"careerBandId"`
	TeamID       string `json:"teamId"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload createUserPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Role = strings.ToUpper(strings.TrimSpace(payload.Role))

	v := shared.NewValidator()
	v.Email("email", payload.Email)
	v.Required("fullName", payload.FullName, "is required")
	v.MaxLen("fullName", payload.FullName, 200)
	v.Enum("role", payload.Role, auth.DefaultRoles, "must be one of ADMIN, HR, LEADER, EMPLOYEE")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Service.CreateUser(r.Context(), core.CreateUserInput{
		Email:        payload.Email,
		FullName:     strings.TrimSpace(payload.FullName),
		JobTitle:     strings.TrimSpace(payload.JobTitle),
		Role:         payload.Role,
		CareerBandID: payload.CareerBandID,
		TeamID:       payload.TeamID,
	})
	if err != nil {
		shared.WriteError(w, r, err, "failed to create user", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "user.create", "user", created.ID, nil, created); err != nil {
		slog.Warn("audit user.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

type updateUserPayload struct {
	FullName     *string `json:"fullName"`
	JobTitle     *string `json:"jobTitle"`
	Role         *string `json:"role"`
	CareerBandID *string `json:"careerBandId"`
	Status       *string `json:"status"`
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	var payload updateUserPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.FullName != nil {
		v.Required("fullName", *payload.FullName, "must not be empty")
	}
	if payload.Role != nil {
		upper := strings.ToUpper(strings.TrimSpace(*payload.Role))
		payload.Role = &upper
		v.Enum("role", upper, auth.DefaultRoles, "must be one of ADMIN, HR, LEADER, EMPLOYEE")
	}
	if payload.Status != nil {
		upper := strings.ToUpper(strings.TrimSpace(*payload.Status))
		payload.Status = &upper
		v.Enum("status", upper, []string{auth.UserStatusPending, auth.UserStatusActive, auth.UserStatusInactive}, "must be PENDING, ACTIVE or INACTIVE")
		if userID == actor.UserID && upper != auth.UserStatusActive {
			v.Add("status", "you cannot deactivate your own account")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	before, after, err := h.Service.UpdateUser(r.Context(), userID, core.UpdateUserInput{
		FullName:     payload.FullName,
		JobTitle:     payload.JobTitle,
		Role:         payload.Role,
		CareerBandID: payload.CareerBandID,
		Status:       payload.Status,
	})
	if err != nil {
		shared.WriteError(w, r, err, "failed to update user", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "user.update", "user", userID, before, after); err != nil {
		slog.Warn("audit user.update failed", "err", err)
	}
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	if err := h.Service.ResendVerification(r.Context(), userID); err != nil {
		shared.WriteError(w, r, err, "failed to resend verification", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "user.verification.resend", "user", userID, nil, nil); err != nil {
		slog.Warn("audit user.verification.resend failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "sent"}, middleware.GetRequestID(r.Context()))
}

type bandPayload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

func (p bandPayload) validate(w http.ResponseWriter, r *http.Request) bool {
	v := shared.NewValidator()
	v.Required("code", p.Code, "is required")
	v.MaxLen("code", p.Code, 32)
	v.Required("name", p.Name, "is required")
	return !v.Reject(w, middleware.GetRequestID(r.Context()))
}

func (p bandPayload) band() core.CareerBand {
	return core.CareerBand{Code: p.Code, Name: strings.TrimSpace(p.Name), Description: strings.TrimSpace(p.Description), SortOrder: p.SortOrder}
}

func (h *Handler) handleListBands(w http.ResponseWriter, r *http.Request) {
	bands, err := h.Service.ListBands(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "failed to list career bands", errorMappings...)
		return
	}
	api.Success(w, bands, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateBand(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload bandPayload
	if !shared.DecodeJSON(w, r, &payload) || !payload.validate(w, r) {
		return
	}
	band, err := h.Service.CreateBand(r.Context(), payload.band())
	if err != nil {
		shared.WriteError(w, r, err, "failed to create career band", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "band.create", "career_band", band.ID, nil, band); err != nil {
		slog.Warn("audit band.create failed", "err", err)
	}
	api.Created(w, band, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateBand(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	bandID := chi.URLParam(r, "bandID")
	var payload bandPayload
	if !shared.DecodeJSON(w, r, &payload) || !payload.validate(w, r) {
		return
	}
	band, err := h.Service.UpdateBand(r.Context(), bandID, payload.band())
	if err != nil {
		shared.WriteError(w, r, err, "failed to update career band", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "band.update", "career_band", bandID, nil, band); err != nil {
		slog.Warn("audit band.update failed", "err", err)
	}
	api.Success(w, band, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteBand(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	bandID := chi.URLParam(r, "bandID")
	if err := h.Service.DeleteBand(r.Context(), bandID); err != nil {
		shared.WriteError(w, r, err, "failed to delete career band", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "band.delete", "career_band", bandID, nil, nil); err != nil {
		slog.Warn("audit band.delete failed", "err", err)
	}
	api.Success(w, map[string]string{"id": bandID}, middleware.GetRequestID(r.Context()))
}
