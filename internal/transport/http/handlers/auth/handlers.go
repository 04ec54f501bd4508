package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talenthub/internal/domain/audit"
	"talenthub/internal/domain/auth"
	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/middleware"
	"talenthub/internal/transport/http/shared"
)

const minPasswordLength = 10

type Service interface {
	Login(ctx context.Context, email, password, mfaCode, ip string) (auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	VerifyAccount(ctx context.Context, rawToken, password string) (auth.VerifyResult, error)
	SetupMFA(ctx context.Context, userID, accountName string) (auth.MFASetup, error)
	EnableMFA(ctx context.Context, userID, code string) error
	DisableMFA(ctx context.Context, userID, code string) error
}

var mfaErrorMappings = []shared.ErrorMapping{
	{Target: auth.ErrMFAUnavailable, Status: http.StatusBadRequest, Code: "mfa_unavailable"},
	{Target: auth.ErrMFANotSetUp, Status: http.StatusBadRequest, Code: "mfa_missing"},
	{Target: auth.ErrMFAInvalid, Status: http.StatusBadRequest, Code: "mfa_invalid"},
	{Target: auth.ErrSessionInvalid, Status: http.StatusUnauthorized, Code: "unauthorized"},
}

type Handler struct {
	Service Service
	Audit   audit.Recorder
}

func NewHandler(service Service, auditSvc audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

// RegisterPublicRoutes mounts the endpoints reachable without a session.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/verify", h.handleVerify)
	})
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Route("/auth/mfa", func(r chi.Router) {
		r.Post("/setup", h.handleMFASetup)
		r.Post("/enable", h.handleMFAEnable)
		r.Post("/disable", h.handleMFADisable)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

type verifyRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.Login(r.Context(), strings.ToLower(strings.TrimSpace(payload.Email)), payload.Password, strings.TrimSpace(payload.MFACode), shared.ClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMFARequired):
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", middleware.GetRequestID(r.Context()))
			return
		case errors.Is(err, auth.ErrMFAInvalid):
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
			return
		}
		if auth.IsAuthError(err) {
			// Do not reveal whether the account exists or is merely inactive.
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
			return
		}
		shared.WriteError(w, r, err, "login failed")
		return
	}
	if err := h.Audit.Record(r.Context(), result.UserID, "auth.login", "user", result.UserID, nil, nil); err != nil {
		slog.Warn("audit auth.login failed", "err", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.Logout(r.Context(), user.SessionID); err != nil {
		slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var payload verifyRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("token", payload.Token, "is required")
	if payload.Password != "" {
		if err := validatePassword(payload.Password); err != "" {
			v.Add("password", err)
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	result, err := h.Service.VerifyAccount(r.Context(), strings.TrimSpace(payload.Token), payload.Password)
	if err != nil {
		shared.WriteError(w, r, err, "account verification failed",
			shared.ErrorMapping{Target: auth.ErrTokenInvalid, Status: http.StatusBadRequest, Code: "invalid_token"},
			shared.ErrorMapping{Target: auth.ErrTokenExpired, Status: http.StatusGone, Code: "token_expired"},
		)
		return
	}
	if !result.AlreadyVerified {
		if err := h.Audit.Record(r.Context(), result.UserID, "auth.verify", "user", result.UserID, nil, result); err != nil {
			slog.Warn("audit auth.verify failed", "err", err)
		}
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	setup, err := h.Service.SetupMFA(r.Context(), user.UserID, user.UserID)
	if err != nil {
		shared.WriteError(w, r, err, "failed to generate mfa secret", mfaErrorMappings...)
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enable bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("code", payload.Code, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	action, status := "auth.mfa.disable", "disabled"
	toggle := h.Service.DisableMFA
	if enable {
		action, status = "auth.mfa.enable", "enabled"
		toggle = h.Service.EnableMFA
	}
	if err := toggle(r.Context(), user.UserID, strings.TrimSpace(payload.Code)); err != nil {
		shared.WriteError(w, r, err, "failed to update mfa", mfaErrorMappings...)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, action, "user", user.UserID, nil, nil); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}

// validatePassword returns a reason when the password is too weak.
func validatePassword(password string) string {
	if len(password) < minPasswordLength {
		return "must be at least 10 characters"
	}
	var upper, lower, digit bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return "must mix upper case, lower case and digits"
	}
	return ""
}
