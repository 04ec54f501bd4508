package retention

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql    string
	cutoff time.Time
}

type fakeDB struct {
	calls []execCall
	fail  string
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, cutoff: args[0].(time.Time)})
	if f.fail != "" && strings.Contains(sql, f.fail) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	return pgconn.NewCommandTag("DELETE 2"), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

func TestSweepAppliesEveryPolicy(t *testing.T) {
	db := &fakeDB{}
	svc := NewService(db)
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	out, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(DefaultPolicies) || out[CategorySessions] != 2 {
		t.Fatalf("unexpected result %+v", out)
	}
	if !db.calls[0].cutoff.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("unexpected cutoff %v", db.calls[0].cutoff)
	}
	for _, c := range db.calls {
		for _, table := range []string{"assessment", "work_requests", "audit_events"} {
			if strings.Contains(c.sql, table) {
				t.Fatalf("retention touched business table: %s", c.sql)
			}
		}
	}
}

func TestSweepContinuesAfterFailure(t *testing.T) {
	db := &fakeDB{fail: "idempotency_keys"}
	svc := NewService(db)

	out, err := svc.Sweep(context.Background())
	if err == nil {
		t.Fatal("expected first failure to be reported")
	}
	if _, ok := out[CategoryIdempotency]; ok {
		t.Fatal("failed category should be absent")
	}
	if _, ok := out[CategoryJobRuns]; !ok {
		t.Fatal("later categories should still run")
	}
}

func TestApplyRejectsUnknownCategory(t *testing.T) {
	if _, err := Apply(context.Background(), &fakeDB{}, "payroll", time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
