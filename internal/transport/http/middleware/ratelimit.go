package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"talenthub/internal/transport/http/api"
	"talenthub/internal/transport/http/shared"
)

// Buckets are swept once the table grows past this many keys.
const sweepThreshold = 10000

const maxKeyBodyBytes = 64 * 1024

type keyFunc func(r *http.Request) string

type window struct {
	hits  int
	reset time.Time
}

// fixedWindow counts hits per key and resets each key's counter once its
// window has elapsed.
type fixedWindow struct {
	mu      sync.Mutex
	limit   int
	period  time.Duration
	key     keyFunc
	windows map[string]*window
}

func newFixedWindow(limit int, period time.Duration, key keyFunc) *fixedWindow {
	return &fixedWindow{limit: limit, period: period, key: key, windows: map[string]*window{}}
}

// RateLimit throttles every request per signed-in user, falling back to the
// client address for anonymous calls.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	fw := newFixedWindow(limit, period, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fw.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit applies tighter budgets to credential endpoints
// (a quarter of baseLimit, per address and per submitted email) and to
// workflow decisions (half of baseLimit, per actor).
func SensitiveMutationRateLimit(baseLimit int, period time.Duration) func(http.Handler) http.Handler {
	credentialLimit := max(baseLimit/4, 1)
	byIP := newFixedWindow(credentialLimit, period, clientIPKey)
	byEmail := newFixedWindow(credentialLimit, period, emailOrIPKey)
	byActor := newFixedWindow(max(baseLimit/2, 1), period, actorOrIPKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !byIP.allow(w, r) || !byEmail.allow(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (fw *fixedWindow) allow(w http.ResponseWriter, r *http.Request) bool {
	if fw.limit <= 0 {
		return true
	}
	key := fw.key(r)
	if key == "" {
		key = clientIPKey(r)
	}
	now := time.Now()

	fw.mu.Lock()
	if len(fw.windows) >= sweepThreshold {
		for k, win := range fw.windows {
			if now.After(win.reset) {
				delete(fw.windows, k)
			}
		}
	}
	win, ok := fw.windows[key]
	if !ok || now.After(win.reset) {
		win = &window{reset: now.Add(fw.period)}
		fw.windows[key] = win
	}
	win.hits++
	hits, resetIn := win.hits, secondsUntil(now, win.reset)
	fw.mu.Unlock()

	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(fw.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(fw.limit-hits, 0)))
	headers.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if hits <= fw.limit {
		return true
	}

	headers.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", fw.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func secondsUntil(now, reset time.Time) int {
	d := reset.Sub(now)
	if d <= 0 {
		return 0
	}
	return max(int(d.Seconds()), 1)
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	return "ip:" + shared.RemoteIP(r)
}

// emailOrIPKey keys credential attempts by the submitted email so one account
// cannot be brute-forced from many addresses. The body is restored for the
// handler.
func emailOrIPKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return clientIPKey(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBodyBytes))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return clientIPKey(r)
	}
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &payload) != nil || strings.TrimSpace(payload.Email) == "" {
		return clientIPKey(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(payload.Email))
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

// sensitiveRoutes are path.Match patterns relative to /api/v1.
var sensitiveRoutes = []struct {
	pattern string
	scope   sensitiveScope
}{
	{"/auth/login", sensitiveScopeAuth},
	{"/auth/verify", sensitiveScopeAuth},
	{"/auth/mfa/enable", sensitiveScopeAuth},
	{"/auth/mfa/disable", sensitiveScopeAuth},
	{"/competency/import", sensitiveScopeActor},
	{"/emails/retry", sensitiveScopeActor},
	{"/emails/logs/*/resend", sensitiveScopeActor},
	{"/cycles/*/activate", sensitiveScopeActor},
	{"/cycles/*/complete", sensitiveScopeActor},
	{"/assessments/*/advance", sensitiveScopeActor},
	{"/requests/*/approve", sensitiveScopeActor},
	{"/requests/*/reject", sensitiveScopeActor},
	{"/profile/requests/*/approve", sensitiveScopeActor},
	{"/profile/requests/*/reject", sensitiveScopeActor},
	{"/users/*/resend-verification", sensitiveScopeActor},
	{"/system/jobs/*", sensitiveScopeActor},
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}
	route := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(r.URL.Path)), "/api/v1")
	for _, candidate := range sensitiveRoutes {
		if ok, _ := path.Match(candidate.pattern, route); ok {
			return candidate.scope
		}
	}
	return sensitiveScopeNone
}
