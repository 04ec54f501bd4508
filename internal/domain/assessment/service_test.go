package assessment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/competency"
)

type fakeStore struct {
	cycles       map[string]Cycle
	users        []EligibleUser
	requirements []competency.Requirement
	assessments  map[string]Assessment
	details      map[string][]Detail
	leaders      map[string]string
	seq          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cycles:      map[string]Cycle{},
		assessments: map[string]Assessment{},
		details:     map[string][]Detail{},
		leaders:     map[string]string{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx StoreAPI) error) error { return fn(f) }

func (f *fakeStore) CreateCycle(_ context.Context, in CycleInput, createdBy string) (string, error) {
	id := f.id("cycle")
	f.cycles[id] = Cycle{ID: id, Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate, Status: CycleStatusDraft, CreatedBy: createdBy}
	return id, nil
}

func (f *fakeStore) GetCycle(_ context.Context, id string) (Cycle, error) {
	c, ok := f.cycles[id]
	if !ok {
		return Cycle{}, ErrCycleNotFound
	}
	for _, a := range f.assessments {
		if a.CycleID == id {
			c.AssessmentCount++
		}
	}
	return c, nil
}

func (f *fakeStore) LockCycle(ctx context.Context, id string) (Cycle, error) { return f.GetCycle(ctx, id) }

func (f *fakeStore) ListCycles(context.Context) ([]Cycle, error) {
	out := []Cycle{}
	for _, c := range f.cycles {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateCycle(_ context.Context, id string, in CycleInput) error {
	c := f.cycles[id]
	c.Name, c.StartDate, c.EndDate = in.Name, in.StartDate, in.EndDate
	f.cycles[id] = c
	return nil
}

func (f *fakeStore) ActiveCycle(context.Context) (Cycle, bool, error) {
	for _, c := range f.cycles {
		if c.Status == CycleStatusActive {
			return c, true, nil
		}
	}
	return Cycle{}, false, nil
}

func (f *fakeStore) SetCycleStatus(_ context.Context, id, status string) error {
	c := f.cycles[id]
	c.Status = status
	f.cycles[id] = c
	return nil
}

func (f *fakeStore) ListEligibleUsers(context.Context) ([]EligibleUser, error) { return f.users, nil }

func (f *fakeStore) EligibleUser(_ context.Context, userID string) (EligibleUser, bool, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			return u, true, nil
		}
	}
	return EligibleUser{}, false, nil
}

func (f *fakeStore) ListRequirements(context.Context) ([]competency.Requirement, error) {
	return f.requirements, nil
}

func (f *fakeStore) CreateAssessment(_ context.Context, cycleID string, seed Seed) (string, error) {
	for _, a := range f.assessments {
		if a.UserID == seed.UserID && a.CycleID == cycleID {
			return "", ErrDuplicateAssessment
		}
	}
	id := f.id("a")
	f.assessments[id] = Assessment{ID: id, UserID: seed.UserID, UserName: seed.UserID, CycleID: cycleID, Status: StatusSelfAssessing, Version: 1}
	details := make([]Detail, len(seed.Details))
	copy(details, seed.Details)
	f.details[id] = details
	return id, nil
}

func (f *fakeStore) GetAssessment(_ context.Context, id string) (Assessment, error) {
	a, ok := f.assessments[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	c := f.cycles[a.CycleID]
	a.CycleName, a.CycleStatus = c.Name, c.Status
	a.LeaderID = f.leaders[a.UserID]
	return a, nil
}

func (f *fakeStore) LockAssessment(ctx context.Context, id string) (Assessment, error) {
	return f.GetAssessment(ctx, id)
}

func (f *fakeStore) FindAssessment(ctx context.Context, userID, cycleID string) (Assessment, bool, error) {
	for id, a := range f.assessments {
		if a.UserID == userID && a.CycleID == cycleID {
			out, err := f.GetAssessment(ctx, id)
			return out, true, err
		}
	}
	return Assessment{}, false, nil
}

func (f *fakeStore) ListAssessments(ctx context.Context, filter Filter) ([]Assessment, int, error) {
	out := []Assessment{}
	for id := range f.assessments {
		a, _ := f.GetAssessment(ctx, id)
		if filter.CycleID != "" && a.CycleID != filter.CycleID {
			continue
		}
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.LeaderID != "" && a.LeaderID != filter.LeaderID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.OwnerOrLeader != "" && a.UserID != filter.OwnerOrLeader && a.LeaderID != filter.OwnerOrLeader {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) ListDetails(_ context.Context, id string) ([]Detail, error) {
	out := make([]Detail, len(f.details[id]))
	copy(out, f.details[id])
	return out, nil
}

func (f *fakeStore) SetDetailLevel(_ context.Context, id, competencyID, field string, level *int) error {
	for i := range f.details[id] {
		d := &f.details[id][i]
		if d.CompetencyID != competencyID {
			continue
		}
		switch field {
		case FieldSelfLevel:
			d.SelfLevel = level
		case FieldLeaderLevel:
			d.LeaderLevel = level
		case FieldFinalLevel:
			d.FinalLevel = level
		}
		return nil
	}
	return ErrUnknownCompetency
}

func (f *fakeStore) bump(id string, mutate func(a *Assessment)) (int, error) {
	a, ok := f.assessments[id]
	if !ok {
		return 0, ErrNotFound
	}
	mutate(&a)
	a.Version++
	f.assessments[id] = a
	return a.Version, nil
}

func (f *fakeStore) SaveProgress(_ context.Context, id string, selfAvg, finalAvg *float64) (int, error) {
	return f.bump(id, func(a *Assessment) { a.SelfScoreAvg, a.FinalScoreAvg = selfAvg, finalAvg })
}

func (f *fakeStore) SetFeedback(_ context.Context, id, feedback string) (int, error) {
	return f.bump(id, func(a *Assessment) { a.Feedback = feedback })
}

func (f *fakeStore) SetStatus(_ context.Context, id, status string) (int, error) {
	return f.bump(id, func(a *Assessment) { a.Status = status })
}

type recordingNotifier struct {
	sent []string
}

func (r *recordingNotifier) Notify(_ context.Context, userID, ntype, _, _ string) {
	r.sent = append(r.sent, userID+":"+ntype)
}

var (
	owner  = auth.UserContext{UserID: "u1", RoleName: auth.RoleEmployee}
	leader = auth.UserContext{UserID: "lead", RoleName: auth.RoleLeader}
	hr     = auth.UserContext{UserID: "hr", RoleName: auth.RoleHR}
)

func seededService(t *testing.T) (*Service, *fakeStore, *recordingNotifier, Cycle) {
	t.Helper()
	store := newFakeStore()
	store.users = []EligibleUser{{UserID: "u1", CareerBandID: "DEV"}, {UserID: "u2", CareerBandID: "DEV"}}
	store.requirements = []competency.Requirement{
		{CareerBandID: "DEV", CompetencyID: "CompA", RequiredLevel: 2},
		{CareerBandID: "DEV", CompetencyID: "CompB", RequiredLevel: 3},
	}
	store.leaders["u1"] = "lead"
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cycle, err := svc.CreateCycle(context.Background(), "hr", CycleInput{Name: "Q1-2026", StartDate: start, EndDate: start.AddDate(0, 3, 0)})
	if err != nil {
		t.Fatalf("create cycle: %v", err)
	}
	return svc, store, notifier, cycle
}

func TestActivateCycleInstantiatesAssessments(t *testing.T) {
	svc, store, notifier, cycle := seededService(t)
	ctx := context.Background()

	activated, created, err := svc.ActivateCycle(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if created != 2 || activated.Status != CycleStatusActive || activated.AssessmentCount != 2 {
		t.Fatalf("unexpected activation result: %+v created=%d", activated, created)
	}
	for id, a := range store.assessments {
		if a.Status != StatusSelfAssessing {
			t.Fatalf("expected SELF_ASSESSING, got %s", a.Status)
		}
		if len(store.details[id]) != 2 {
			t.Fatalf("expected 2 detail rows, got %d", len(store.details[id]))
		}
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %v", notifier.sent)
	}

	if _, _, err := svc.ActivateCycle(ctx, cycle.ID); !errors.Is(err, ErrCycleAlreadyActive) {
		t.Fatalf("expected already active, got %v", err)
	}
	other, _ := svc.CreateCycle(ctx, "hr", CycleInput{Name: "Q2", StartDate: cycle.StartDate, EndDate: cycle.EndDate})
	if _, _, err := svc.ActivateCycle(ctx, other.ID); !errors.Is(err, ErrActiveCycleExists) {
		t.Fatalf("expected active cycle exists, got %v", err)
	}
	if _, err := svc.UpdateCycle(ctx, cycle.ID, CycleInput{Name: "x", StartDate: cycle.StartDate, EndDate: cycle.EndDate}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state for active cycle update, got %v", err)
	}
}

func TestCreateCycleValidation(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateCycle(context.Background(), "", CycleInput{Name: " ", StartDate: start, EndDate: start}); !errors.Is(err, ErrInvalidCycle) {
		t.Fatalf("expected invalid cycle, got %v", err)
	}
	if _, err := svc.CreateCycle(context.Background(), "", CycleInput{Name: "x", StartDate: start, EndDate: start.AddDate(0, 0, -1)}); !errors.Is(err, ErrInvalidCycle) {
		t.Fatalf("expected invalid cycle, got %v", err)
	}
}

func assessmentFor(t *testing.T, store *fakeStore, userID string) string {
	t.Helper()
	for id, a := range store.assessments {
		if a.UserID == userID {
			return id
		}
	}
	t.Fatalf("no assessment for %s", userID)
	return ""
}

func TestFullWorkflow(t *testing.T) {
	svc, store, notifier, cycle := seededService(t)
	ctx := context.Background()
	if _, _, err := svc.ActivateCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	id := assessmentFor(t, store, "u1")
	notifier.sent = nil

	if _, err := svc.SubmitScores(ctx, leader, id, map[string]*int{"CompA": intPtr(3)}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("leader must not write self levels, got %v", err)
	}
	view, err := svc.SubmitScores(ctx, owner, id, map[string]*int{"CompA": intPtr(3)})
	if err != nil {
		t.Fatalf("submit self: %v", err)
	}
	if view.SelfScoreAvg == nil || *view.SelfScoreAvg != 3 {
		t.Fatalf("expected self avg 3, got %v", view.SelfScoreAvg)
	}

	if _, err := svc.Advance(ctx, owner, id, nil); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected incomplete, got %v", err)
	}
	view, err = svc.SubmitScores(ctx, owner, id, map[string]*int{"CompB": intPtr(5)})
	if err != nil {
		t.Fatalf("submit self: %v", err)
	}
	stale := view.Version - 1
	if _, err := svc.Advance(ctx, owner, id, &stale); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected stale version, got %v", err)
	}
	view, err = svc.Advance(ctx, owner, id, &view.Version)
	if err != nil {
		t.Fatalf("advance self: %v", err)
	}
	if view.Status != StatusLeaderAssessing {
		t.Fatalf("expected LEADER_ASSESSING, got %s", view.Status)
	}
	if len(notifier.sent) != 1 || notifier.sent[0] != "lead:assessment_advanced" {
		t.Fatalf("expected leader notification, got %v", notifier.sent)
	}

	if _, err := svc.SubmitScores(ctx, owner, id, map[string]*int{"CompA": intPtr(5)}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner must not write during leader phase, got %v", err)
	}
	if _, err := svc.SubmitScores(ctx, hr, id, map[string]*int{"CompA": intPtr(5)}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("reviewer must not replace an existing leader, got %v", err)
	}
	if _, err := svc.SubmitScores(ctx, leader, id, map[string]*int{"CompA": intPtr(2), "CompB": intPtr(4)}); err != nil {
		t.Fatalf("submit leader: %v", err)
	}
	if _, err := svc.Advance(ctx, leader, id, nil); err != nil {
		t.Fatalf("advance leader: %v", err)
	}

	if _, err := svc.SetFeedback(ctx, hr, id, " solid quarter "); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if _, err := svc.SubmitScores(ctx, hr, id, map[string]*int{"CompA": intPtr(2), "CompB": intPtr(5)}); err != nil {
		t.Fatalf("submit final: %v", err)
	}
	view, err = svc.Advance(ctx, leader, id, nil)
	if err != nil {
		t.Fatalf("advance discussion: %v", err)
	}
	if view.Status != StatusDone || view.Feedback != "solid quarter" {
		t.Fatalf("unexpected final view: %+v", view.Assessment)
	}
	if view.FinalScoreAvg == nil || *view.FinalScoreAvg != 3.5 {
		t.Fatalf("expected final avg 3.5, got %v", view.FinalScoreAvg)
	}
	if view.Summary.Underqualified.Sum != 0 {
		t.Fatalf("expected no underqualified gap, got %+v", view.Summary.Underqualified)
	}

	if _, err := svc.SubmitScores(ctx, hr, id, map[string]*int{"CompA": intPtr(1)}); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected locked after DONE, got %v", err)
	}

	latest, ok, err := svc.LatestCompleted(ctx, "u1")
	if err != nil || !ok || latest.ID != id {
		t.Fatalf("expected latest completed assessment, got %v %v", ok, err)
	}
}

func TestCompletedCycleLocksWrites(t *testing.T) {
	svc, store, _, cycle := seededService(t)
	ctx := context.Background()
	if _, _, err := svc.ActivateCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := svc.CompleteCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	id := assessmentFor(t, store, "u1")
	if _, err := svc.SubmitScores(ctx, owner, id, map[string]*int{"CompA": intPtr(3)}); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected locked, got %v", err)
	}
	if _, err := svc.CompleteCycle(ctx, cycle.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestStartSelfAssessment(t *testing.T) {
	svc, store, _, cycle := seededService(t)
	ctx := context.Background()

	if _, err := svc.StartSelfAssessment(ctx, owner); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("expected no active cycle, got %v", err)
	}
	store.cycles[cycle.ID] = Cycle{ID: cycle.ID, Name: cycle.Name, Status: CycleStatusActive}

	view, err := svc.StartSelfAssessment(ctx, owner)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Relation != RelationOwner || len(view.Details) != 2 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if _, err := svc.StartSelfAssessment(ctx, owner); !errors.Is(err, ErrDuplicateAssessment) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := svc.StartSelfAssessment(ctx, auth.UserContext{UserID: "nobody"}); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected not eligible, got %v", err)
	}
}

func TestGetAndListAreScoped(t *testing.T) {
	svc, store, _, cycle := seededService(t)
	ctx := context.Background()
	if _, _, err := svc.ActivateCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	id := assessmentFor(t, store, "u2")

	if _, err := svc.Get(ctx, owner, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for a colleague's assessment, got %v", err)
	}
	items, _, err := svc.List(ctx, leader, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].UserID != "u1" {
		t.Fatalf("expected only the led member's assessment, got %+v", items)
	}
	own, _, err := svc.List(ctx, owner, Filter{})
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 || own[0].UserID != "u1" {
		t.Fatalf("expected the employee's own assessment without a filter, got %+v", own)
	}
	if others, _, _ := svc.List(ctx, owner, Filter{UserID: "u2"}); len(others) != 0 {
		t.Fatalf("expected a colleague's assessments to stay hidden, got %+v", others)
	}
	all, _, _ := svc.List(ctx, hr, Filter{})
	if len(all) != 2 {
		t.Fatalf("expected reviewers to see all, got %d", len(all))
	}

	report, err := svc.CycleReport(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Rows) != 2 || report.ByStatus[StatusSelfAssessing] != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestBuildAssessmentFilterOwnerOrLeader(t *testing.T) {
	where, args := buildAssessmentFilter(Filter{CycleID: "c1", OwnerOrLeader: "u1"})
	want := " WHERE a.cycle_id = $1 AND (a.user_id = $2 OR t.leader_id = $2)"
	if where != want {
		t.Fatalf("unexpected clause %q", where)
	}
	if len(args) != 2 || args[1] != "u1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestScopeFilter(t *testing.T) {
	if f := scopeFilter(owner, Filter{}); f.OwnerOrLeader != "u1" || f.LeaderID != "" {
		t.Fatalf("expected owner-or-leader scope, got %+v", f)
	}
	if f := scopeFilter(owner, Filter{UserID: "u1"}); f.OwnerOrLeader != "" || f.LeaderID != "" {
		t.Fatalf("expected own filter untouched, got %+v", f)
	}
	if f := scopeFilter(leader, Filter{UserID: "u1"}); f.LeaderID != "lead" {
		t.Fatalf("expected leader scope for another user, got %+v", f)
	}
	if f := scopeFilter(hr, Filter{}); f.OwnerOrLeader != "" || f.LeaderID != "" {
		t.Fatalf("expected reviewers unscoped, got %+v", f)
	}
}
