package teamhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/team"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context) ([]team.Team, error)
	Get(ctx context.Context, teamID string) (team.Details, error)
	Create(ctx context.Context, in team.Input) (team.Team, error)
	Update(ctx context.Context, teamID string, in team.Input) (team.Team, error)
	Delete(ctx context.Context, teamID string) (team.DeleteResult, error)
	SetLeader(ctx context.Context, teamID, userID string) (team.Team, error)
	AddMember(ctx context.Context, teamID, userID string) (team.Details, error)
	RemoveMember(ctx context.Context, teamID, userID string) (team.Details, error)
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
	r.Route("/teams", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTeamsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermTeamsRead, h.Perms)).Get("/{teamID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Put("/{teamID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Delete("/{teamID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Put("/{teamID}/leader", h.handleSetLeader)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Post("/{teamID}/members", h.handleAddMember)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite, h.Perms)).Delete("/{teamID}/members/{userID}", h.handleRemoveMember)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(team.ErrNotFound),
	shared.NotFound(team.ErrUserNotFound),
	shared.Conflict(team.ErrNameTaken),
	shared.BadRequest(team.ErrInvalidName),
	shared.BadRequest(team.ErrNotMember),
	shared.Conflict(team.ErrUserInactive),
}

type teamPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberPayload struct {
	UserID string `json:"userId"`
}

func (h *Handler) decodeTeam(w http.ResponseWriter, r *http.Request) (team.Input, bool) {
	var payload teamPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return team.Input{}, false
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.MaxLen("name", payload.Name, 120)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return team.Input{}, false
	}
	return team.Input{Name: strings.TrimSpace(payload.Name), Description: strings.TrimSpace(payload.Description)}, true
}

func (h *Handler) decodeMember(w http.ResponseWriter, r *http.Request) (string, bool) {
	var payload memberPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return "", false
	}
	v := shared.NewValidator()
	v.Required("userId", payload.UserID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return "", false
	}
	return strings.TrimSpace(payload.UserID), true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Service.List(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "failed to list teams", errorMappings...)
		return
	}
	api.Success(w, teams, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.Get(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load team", errorMappings...)
		return
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	in, ok := h.decodeTeam(w, r)
	if !ok {
		return
	}
	created, err := h.Service.Create(r.Context(), in)
	if err != nil {
		shared.WriteError(w, r, err, "failed to create team", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "team.create", "team", created.ID, nil, created); err != nil {
		slog.Warn("audit team.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	teamID := chi.URLParam(r, "teamID")
	in, ok := h.decodeTeam(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.Update(r.Context(), teamID, in)
	if err != nil {
		shared.WriteError(w, r, err, "failed to update team", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "team.update", "team", teamID, nil, updated); err != nil {
		slog.Warn("audit team.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	teamID := chi.URLParam(r, "teamID")
	result, err := h.Service.Delete(r.Context(), teamID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to delete team", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "team.delete", "team", teamID, result.Team, nil); err != nil {
		slog.Warn("audit team.delete failed", "err", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetLeader(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	teamID := chi.URLParam(r, "teamID")
	userID, ok := h.decodeMember(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.SetLeader(r.Context(), teamID, userID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to set team leader", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "team.leader.set", "team", teamID, nil, map[string]string{"leaderId": userID}); err != nil {
		slog.Warn("audit team.leader.set failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	teamID := chi.URLParam(r, "teamID")
	userID, ok := h.decodeMember(w, r)
	if !ok {
		return
	}
	details, err := h.Service.AddMember(r.Context(), teamID, userID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to add team member", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "team.member.add", "team", teamID, nil, map[string]string{"userId": userID}); err != nil {
		slog.Warn("audit team.member.add failed", "err", err)
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	teamID := chi.URLParam(r, "teamID")
	userID := chi.URLParam(r, "userID")
	details, err := h.Service.RemoveMember(r.Context(), teamID, userID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to remove team member", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "team.member.remove", "team", teamID, map[string]string{"userId": userID}, nil); err != nil {
		slog.Warn("audit team.member.remove failed", "err", err)
	}
	api.Success(w, details, middleware.GetRequestID(r.Context()))
}
