package competencyhandler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/competency"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

const maxFrameworkBytes = 2 * 1024 * 1024

type Service interface {
	ListGroups(ctx context.Context) ([]competency.Group, error)
	CreateGroup(ctx context.Context, group competency.Group) (competency.Group, error)
	UpdateGroup(ctx context.Context, groupID string, group competency.Group) (competency.Group, error)
	DeleteGroup(ctx context.Context, groupID string) (competency.Group, error)
	ListCompetencies(ctx context.Context, groupID string) ([]competency.Competency, error)
	GetCompetency(ctx context.Context, competencyID string) (competency.Competency, error)
	CreateCompetency(ctx context.Context, comp competency.Competency) (competency.Competency, error)
	UpdateCompetency(ctx context.Context, competencyID string, comp competency.Competency) (competency.Competency, error)
	DeleteCompetency(ctx context.Context, competencyID string) (competency.Competency, error)
	ListRequirements(ctx context.Context, bandID string) ([]competency.Requirement, error)
	LoadMatrix(ctx context.Context) (*competency.Matrix, error)
	SetRequirement(ctx context.Context, bandID, competencyID string, level *int) error
	ImportFramework(ctx context.Context, fw competency.Framework) (competency.ImportSummary, error)
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
	r.Route("/competency", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCompetencyRead, h.Perms)).Get("/groups", h.handleListGroups)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Post("/groups", h.handleCreateGroup)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Put("/groups/{groupID}", h.handleUpdateGroup)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Delete("/groups/{groupID}", h.handleDeleteGroup)
		r.With(middleware.RequirePermission(auth.PermCompetencyRead, h.Perms)).Get("/competencies", h.handleListCompetencies)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Post("/competencies", h.handleCreateCompetency)
		r.With(middleware.RequirePermission(auth.PermCompetencyRead, h.Perms)).Get("/competencies/{competencyID}", h.handleGetCompetency)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Put("/competencies/{competencyID}", h.handleUpdateCompetency)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Delete("/competencies/{competencyID}", h.handleDeleteCompetency)
		r.With(middleware.RequirePermission(auth.PermCompetencyRead, h.Perms)).Get("/requirements", h.handleListRequirements)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Put("/requirements", h.handleSetRequirement)
		r.With(middleware.RequirePermission(auth.PermCompetencyRead, h.Perms)).Get("/matrix", h.handleMatrix)
		r.With(middleware.RequirePermission(auth.PermCompetencyWrite, h.Perms)).Post("/import", h.handleImport)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(competency.ErrNotFound),
	shared.Conflict(competency.ErrGroupNotEmpty),
	shared.Conflict(competency.ErrCompetencyInUse),
	shared.Conflict(competency.ErrDuplicateName),
	shared.BadRequest(competency.ErrInvalidLevels),
	shared.BadRequest(competency.ErrInvalidRequiredLevel),
	shared.BadRequest(competency.ErrInvalidFramework),
}

type groupPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func decodeGroup(w http.ResponseWriter, r *http.Request) (competency.Group, bool) {
	var payload groupPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return competency.Group{}, false
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.MaxLen("name", payload.Name, 120)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return competency.Group{}, false
	}
	return competency.Group{Name: strings.TrimSpace(payload.Name), Description: strings.TrimSpace(payload.Description)}, true
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "failed to list competency groups", errorMappings...)
		return
	}
	api.Success(w, groups, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	group, ok := decodeGroup(w, r)
	if !ok {
		return
	}
	created, err := h.Service.CreateGroup(r.Context(), group)
	if err != nil {
		shared.WriteError(w, r, err, "failed to create competency group", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.group.create", "competency_group", created.ID, nil, created); err != nil {
		slog.Warn("audit competency.group.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	groupID := chi.URLParam(r, "groupID")
	group, ok := decodeGroup(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.UpdateGroup(r.Context(), groupID, group)
	if err != nil {
		shared.WriteError(w, r, err, "failed to update competency group", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.group.update", "competency_group", groupID, nil, updated); err != nil {
		slog.Warn("audit competency.group.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	groupID := chi.URLParam(r, "groupID")
	deleted, err := h.Service.DeleteGroup(r.Context(), groupID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to delete competency group", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.group.delete", "competency_group", groupID, deleted, nil); err != nil {
		slog.Warn("audit competency.group.delete failed", "err", err)
	}
	api.Success(w, deleted, middleware.GetRequestID(r.Context()))
}

type competencyPayload struct {
	GroupID     string             `json:"groupId"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Levels      []competency.Level `json:"levels"`
}

func decodeCompetency(w http.ResponseWriter, r *http.Request) (competency.Competency, bool) {
	var payload competencyPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return competency.Competency{}, false
	}
	v := shared.NewValidator()
	v.Required("groupId", payload.GroupID, "is required")
	v.Required("name", payload.Name, "is required")
	v.MaxLen("name", payload.Name, 160)
	if len(payload.Levels) == 0 || len(payload.Levels) > competency.MaxLevel {
		v.Add("levels", "must define between 1 and 5 levels")
	}
	for _, level := range payload.Levels {
		l := level.LevelNumber
		v.Level("levels.levelNumber", &l)
		if strings.TrimSpace(level.BehavioralIndicator) == "" {
			v.Add("levels.behavioralIndicator", "is required")
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return competency.Competency{}, false
	}
	return competency.Competency{
		GroupID:     strings.TrimSpace(payload.GroupID),
		Name:        strings.TrimSpace(payload.Name),
		Description: strings.TrimSpace(payload.Description),
		Levels:      payload.Levels,
	}, true
}

func (h *Handler) handleListCompetencies(w http.ResponseWriter, r *http.Request) {
	comps, err := h.Service.ListCompetencies(r.Context(), r.URL.Query().Get("groupId"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to list competencies", errorMappings...)
		return
	}
	api.Success(w, comps, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCompetency(w http.ResponseWriter, r *http.Request) {
	comp, err := h.Service.GetCompetency(r.Context(), chi.URLParam(r, "competencyID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load competency", errorMappings...)
		return
	}
	api.Success(w, comp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCompetency(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	comp, ok := decodeCompetency(w, r)
	if !ok {
		return
	}
	created, err := h.Service.CreateCompetency(r.Context(), comp)
	if err != nil {
		shared.WriteError(w, r, err, "failed to create competency", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.create", "competency", created.ID, nil, created); err != nil {
		slog.Warn("audit competency.create failed", "err", err)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCompetency(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	competencyID := chi.URLParam(r, "competencyID")
	comp, ok := decodeCompetency(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.UpdateCompetency(r.Context(), competencyID, comp)
	if err != nil {
		shared.WriteError(w, r, err, "failed to update competency", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.update", "competency", competencyID, nil, updated); err != nil {
		slog.Warn("audit competency.update failed", "err", err)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCompetency(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	competencyID := chi.URLParam(r, "competencyID")
	deleted, err := h.Service.DeleteCompetency(r.Context(), competencyID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to delete competency", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.delete", "competency", competencyID, deleted, nil); err != nil {
		slog.Warn("audit competency.delete failed", "err", err)
	}
	api.Success(w, deleted, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.ListRequirements(r.Context(), r.URL.Query().Get("bandId"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to list requirements", errorMappings...)
		return
	}
	api.Success(w, reqs, middleware.GetRequestID(r.Context()))
}

type bandRequirements struct {
	CareerBandID string                   `json:"careerBandId"`
	Requirements []competency.Requirement `json:"requirements"`
}

// handleMatrix returns the whole requirements matrix grouped by band.
func (h *Handler) handleMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.Service.LoadMatrix(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "failed to load requirements matrix", errorMappings...)
		return
	}
	bands := make([]bandRequirements, 0)
	for _, bandID := range matrix.BandIDs() {
		bands = append(bands, bandRequirements{CareerBandID: bandID, Requirements: matrix.ForBand(bandID)})
	}
	api.Success(w, map[string]any{"cells": matrix.Len(), "bands": bands}, middleware.GetRequestID(r.Context()))
}

type requirementPayload struct {
	CareerBandID  string `json:"careerBandId"`
	CompetencyID  string `json:"competencyId"`
	RequiredLevel *int   `json:"requiredLevel"`
}

// handleSetRequirement upserts one matrix cell; a null level clears it.
func (h *Handler) handleSetRequirement(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var payload requirementPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("careerBandId", payload.CareerBandID, "is required")
	v.Required("competencyId", payload.CompetencyID, "is required")
	v.Level("requiredLevel", payload.RequiredLevel)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if err := h.Service.SetRequirement(r.Context(), payload.CareerBandID, payload.CompetencyID, payload.RequiredLevel); err != nil {
		shared.WriteError(w, r, err, "failed to set requirement", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.requirement.set", "career_band", payload.CareerBandID, nil, payload); err != nil {
		slog.Warn("audit competency.requirement.set failed", "err", err)
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

// handleImport accepts a YAML framework either as the raw body or as the
// "file" part of a multipart upload.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	var src io.Reader = io.LimitReader(r.Body, maxFrameworkBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFrameworkBytes); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart upload", middleware.GetRequestID(r.Context()))
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "file is required", middleware.GetRequestID(r.Context()))
			return
		}
		defer file.Close()
		src = io.LimitReader(file, maxFrameworkBytes)
	}

	fw, err := competency.ParseFramework(src)
	if err != nil {
		shared.WriteError(w, r, err, "failed to parse framework", errorMappings...)
		return
	}
	summary, err := h.Service.ImportFramework(r.Context(), fw)
	if err != nil {
		shared.WriteError(w, r, err, "failed to import framework", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "competency.import", "competency_framework", "", nil, summary); err != nil {
		slog.Warn("audit competency.import failed", "err", err)
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}
