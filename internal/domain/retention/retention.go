package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"talenthub/internal/platform/querier"
)

const (
	CategorySessions      = "sessions"
	CategoryVerification  = "verification_tokens"
	CategoryIdempotency   = "idempotency_keys"
	CategoryNotifications = "notifications"
	CategoryJobRuns       = "job_runs"

	JobSweep = "retention_sweep"
)

// Policy keeps rows of Category for Days after they stop being useful.
type Policy struct {
	Category string `json:"category"`
	Days     int    `json:"days"`
}

// DefaultPolicies never touch business records such as assessments, work
// requests or the audit trail.
var DefaultPolicies = []Policy{
	{Category: CategorySessions, Days: 30},
	{Category: CategoryVerification, Days: 30},
	{Category: CategoryIdempotency, Days: 2},
	{Category: CategoryNotifications, Days: 180},
	{Category: CategoryJobRuns, Days: 90},
}

// Apply deletes the expired rows of one category older than cutoff.
func Apply(ctx context.Context, db querier.Querier, category string, cutoff time.Time) (int64, error) {
	var query string
	switch category {
	case CategorySessions:
		query = `DELETE FROM sessions WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)`
	case CategoryVerification:
		query = `DELETE FROM verification_tokens WHERE expires_at < $1 OR (used_at IS NOT NULL AND used_at < $1) OR (invalidated_at IS NOT NULL AND invalidated_at < $1)`
	case CategoryIdempotency:
		query = `DELETE FROM idempotency_keys WHERE created_at < $1`
	case CategoryNotifications:
		query = `DELETE FROM notifications WHERE read_at IS NOT NULL AND read_at < $1`
	case CategoryJobRuns:
		query = `DELETE FROM job_runs WHERE completed_at IS NOT NULL AND completed_at < $1`
	default:
		return 0, fmt.Errorf("unknown retention category %q", category)
	}
	tag, err := db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention %s: %w", category, err)
	}
	return tag.RowsAffected(), nil
}

type Service struct {
	DB       querier.Querier
	Policies []Policy
	now      func() time.Time
}

func NewService(db querier.Querier) *Service {
	return &Service{DB: db, Policies: DefaultPolicies, now: time.Now}
}

// Sweep applies every policy and reports deleted rows per category. A failing
// category is logged and does not stop the others.
func (s *Service) Sweep(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(s.Policies))
	var firstErr error
	for _, p := range s.Policies {
		if p.Days <= 0 {
			continue
		}
		cutoff := s.now().UTC().AddDate(0, 0, -p.Days)
		n, err := Apply(ctx, s.DB, p.Category, cutoff)
		if err != nil {
			slog.Warn("retention sweep failed", "category", p.Category, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[p.Category] = n
	}
	return out, firstErr
}
