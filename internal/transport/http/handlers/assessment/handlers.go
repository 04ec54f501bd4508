package assessmenthandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/assessment"
	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Service interface {
	ListCycles(ctx context.Context) ([]assessment.Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (assessment.Cycle, error)
	CreateCycle(ctx context.Context, actorID string, in assessment.CycleInput) (assessment.Cycle, error)
	UpdateCycle(ctx context.Context, cycleID string, in assessment.CycleInput) (assessment.Cycle, error)
	ActivateCycle(ctx context.Context, cycleID string) (assessment.Cycle, int, error)
	CompleteCycle(ctx context.Context, cycleID string) (assessment.Cycle, error)
	CycleReport(ctx context.Context, cycleID string) (assessment.CycleReport, error)
	StartSelfAssessment(ctx context.Context, actor auth.UserContext) (assessment.View, error)
	Get(ctx context.Context, actor auth.UserContext, assessmentID string) (assessment.View, error)
	List(ctx context.Context, actor auth.UserContext, filter assessment.Filter) ([]assessment.Assessment, int, error)
	SubmitScores(ctx context.Context, actor auth.UserContext, assessmentID string, scores map[string]*int) (assessment.View, error)
	SetFeedback(ctx context.Context, actor auth.UserContext, assessmentID, feedback string) (assessment.View, error)
	Advance(ctx context.Context, actor auth.UserContext, assessmentID string, expectedVersion *int) (assessment.View, error)
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
	r.Route("/cycles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssessmentRead, h.Perms)).Get("/", h.handleListCycles)
		r.With(middleware.RequirePermission(auth.PermCyclesManage, h.Perms)).Post("/", h.handleCreateCycle)
		r.With(middleware.RequirePermission(auth.PermAssessmentRead, h.Perms)).Get("/{cycleID}", h.handleGetCycle)
		r.With(middleware.RequirePermission(auth.PermCyclesManage, h.Perms)).Put("/{cycleID}", h.handleUpdateCycle)
		r.With(middleware.RequirePermission(auth.PermCyclesManage, h.Perms)).Post("/{cycleID}/activate", h.handleActivateCycle)
		r.With(middleware.RequirePermission(auth.PermCyclesManage, h.Perms)).Post("/{cycleID}/complete", h.handleCompleteCycle)
		r.With(middleware.RequirePermission(auth.PermAssessmentReport, h.Perms)).Get("/{cycleID}/report", h.handleCycleReport)
		r.With(middleware.RequirePermission(auth.PermAssessmentReport, h.Perms)).Get("/{cycleID}/report/export", h.handleCycleReportExport)
	})
	r.Route("/assessments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssessmentRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAssessmentWrite, h.Perms)).Post("/self", h.handleStartSelf)
		r.With(middleware.RequirePermission(auth.PermAssessmentRead, h.Perms)).Get("/{assessmentID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermAssessmentWrite, h.Perms)).Put("/{assessmentID}/scores", h.handleSubmitScores)
		r.With(middleware.RequirePermission(auth.PermAssessmentWrite, h.Perms)).Put("/{assessmentID}/feedback", h.handleSetFeedback)
		r.With(middleware.RequirePermission(auth.PermAssessmentWrite, h.Perms)).Post("/{assessmentID}/advance", h.handleAdvance)
	})
}

var errorMappings = []shared.ErrorMapping{
	shared.NotFound(assessment.ErrNotFound),
	shared.NotFound(assessment.ErrCycleNotFound),
	shared.Forbidden(assessment.ErrForbidden),
	shared.Forbidden(assessment.ErrLocked),
	shared.BadRequest(assessment.ErrInvalidLevel),
	shared.BadRequest(assessment.ErrUnknownCompetency),
	shared.BadRequest(assessment.ErrInvalidCycle),
	shared.Conflict(assessment.ErrCycleAlreadyActive),
	shared.Conflict(assessment.ErrActiveCycleExists),
	shared.Conflict(assessment.ErrNoActiveCycle),
	shared.Conflict(assessment.ErrInvalidState),
	shared.Conflict(assessment.ErrDuplicateAssessment),
	shared.Conflict(assessment.ErrNotEligible),
	shared.Conflict(assessment.ErrStaleVersion),
}

type cyclePayload struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func decodeCycle(w http.ResponseWriter, r *http.Request) (assessment.CycleInput, bool) {
	var payload cyclePayload
	if !shared.DecodeJSON(w, r, &payload) {
		return assessment.CycleInput{}, false
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.MaxLen("name", payload.Name, 120)
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return assessment.CycleInput{}, false
	}
	return assessment.CycleInput{Name: strings.TrimSpace(payload.Name), StartDate: start, EndDate: end}, true
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.Service.ListCycles(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "failed to list cycles", errorMappings...)
		return
	}
	api.Success(w, cycles, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := h.Service.GetCycle(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load cycle", errorMappings...)
		return
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	in, ok := decodeCycle(w, r)
	if !ok {
		return
	}
	cycle, err := h.Service.CreateCycle(r.Context(), actor.UserID, in)
	if err != nil {
		shared.WriteError(w, r, err, "failed to create cycle", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "cycle.create", "assessment_cycle", cycle.ID, nil, cycle); err != nil {
		slog.Warn("audit cycle.create failed", "err", err)
	}
	api.Created(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCycle(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	cycleID := chi.URLParam(r, "cycleID")
	in, ok := decodeCycle(w, r)
	if !ok {
		return
	}
	cycle, err := h.Service.UpdateCycle(r.Context(), cycleID, in)
	if err != nil {
		shared.WriteError(w, r, err, "failed to update cycle", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "cycle.update", "assessment_cycle", cycleID, nil, cycle); err != nil {
		slog.Warn("audit cycle.update failed", "err", err)
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleActivateCycle(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	cycleID := chi.URLParam(r, "cycleID")
	cycle, created, err := h.Service.ActivateCycle(r.Context(), cycleID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to activate cycle", errorMappings...)
		return
	}
	result := map[string]any{"cycle": cycle, "assessmentsCreated": created}
	if err := h.Audit.Record(r.Context(), actor.UserID, "cycle.activate", "assessment_cycle", cycleID, nil, result); err != nil {
		slog.Warn("audit cycle.activate failed", "err", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompleteCycle(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	cycleID := chi.URLParam(r, "cycleID")
	cycle, err := h.Service.CompleteCycle(r.Context(), cycleID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to complete cycle", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "cycle.complete", "assessment_cycle", cycleID, nil, cycle); err != nil {
		slog.Warn("audit cycle.complete failed", "err", err)
	}
	api.Success(w, cycle, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCycleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.CycleReport(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to build cycle report", errorMappings...)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCycleReportExport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.CycleReport(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to build cycle report", errorMappings...)
		return
	}
	buf, name, err := assessment.ExportReport(report)
	if err != nil {
		shared.WriteError(w, r, err, "failed to export cycle report")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write cycle report failed", "err", err)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	filter := assessment.Filter{
		CycleID: query.Get("cycleId"),
		UserID:  query.Get("userId"),
		Status:  strings.ToUpper(query.Get("status")),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	if query.Get("mine") == "true" {
		filter.UserID = actor.UserID
	}
	items, total, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		shared.WriteError(w, r, err, "failed to list assessments", errorMappings...)
		return
	}
	shared.WritePage(w, r, items, total, page)
}

func (h *Handler) handleStartSelf(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	view, err := h.Service.StartSelfAssessment(r.Context(), actor)
	if err != nil {
		shared.WriteError(w, r, err, "failed to start assessment", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "assessment.start", "assessment", view.ID, nil, view.Assessment); err != nil {
		slog.Warn("audit assessment.start failed", "err", err)
	}
	api.Created(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	view, err := h.Service.Get(r.Context(), actor, chi.URLParam(r, "assessmentID"))
	if err != nil {
		shared.WriteError(w, r, err, "failed to load assessment", errorMappings...)
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

type scoresPayload struct {
	Scores map[string]*int `json:"scores"`
}

func (h *Handler) handleSubmitScores(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	assessmentID := chi.URLParam(r, "assessmentID")
	var payload scoresPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if len(payload.Scores) == 0 {
		v.Add("scores", "at least one score is required")
	}
	for competencyID, level := range payload.Scores {
		v.Level("scores."+competencyID, level)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	view, err := h.Service.SubmitScores(r.Context(), actor, assessmentID, payload.Scores)
	if err != nil {
		shared.WriteError(w, r, err, "failed to save scores", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "assessment.scores", "assessment", assessmentID, nil, payload.Scores); err != nil {
		slog.Warn("audit assessment.scores failed", "err", err)
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

type feedbackPayload struct {
	Feedback string `json:"feedback"`
}

func (h *Handler) handleSetFeedback(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	assessmentID := chi.URLParam(r, "assessmentID")
	var payload feedbackPayload
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.MaxLen("feedback", payload.Feedback, 10000)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	view, err := h.Service.SetFeedback(r.Context(), actor, assessmentID, payload.Feedback)
	if err != nil {
		shared.WriteError(w, r, err, "failed to save feedback", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "assessment.feedback", "assessment", assessmentID, nil, nil); err != nil {
		slog.Warn("audit assessment.feedback failed", "err", err)
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

type advancePayload struct {
	ExpectedVersion *int `json:"expectedVersion"`
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	assessmentID := chi.URLParam(r, "assessmentID")
	var payload advancePayload
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	view, err := h.Service.Advance(r.Context(), actor, assessmentID, payload.ExpectedVersion)
	if err != nil {
		shared.WriteError(w, r, err, "failed to advance assessment", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "assessment.advance", "assessment", assessmentID, nil, map[string]string{"status": view.Status}); err != nil {
		slog.Warn("audit assessment.advance failed", "err", err)
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}
