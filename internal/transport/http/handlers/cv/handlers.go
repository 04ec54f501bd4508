package cvhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/core"
	"talenthub/internal/domain/cv"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

type Service interface {
	Generate(ctx context.Context, actor auth.UserContext, userID string) ([]byte, string, error)
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
	r.With(middleware.RequirePermission(auth.PermCVGenerate, h.Perms)).Get("/cv/me", h.handleMine)
	r.With(middleware.RequirePermission(auth.PermCVGenerate, h.Perms)).Get("/cv/{userID}", h.handleUser)
}

var errorMappings = []shared.ErrorMapping{
	shared.Forbidden(cv.ErrForbidden),
	shared.NotFound(core.ErrNotFound),
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	h.serve(w, r, actor.UserID)
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, userID string) {
	actor, _ := middleware.GetUser(r.Context())
	data, name, err := h.Service.Generate(r.Context(), actor, userID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to generate cv", errorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, "cv.generate", "user", userID, nil, nil); err != nil {
		slog.Warn("audit cv.generate failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("write cv failed", "err", err)
	}
}
