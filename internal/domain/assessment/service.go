package assessment

import (
	"context"
	"fmt"
	"strings"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/competency"
	"talenthub/internal/domain/notifications"
)

// Notifier delivers in-app notifications. Failures stay with the notifier.
type Notifier interface {
	Notify(ctx context.Context, userID, ntype, title, body string)
}

type Service struct {
	store    StoreAPI
	Notifier Notifier
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{store: store, Notifier: notifier}
}

func (s *Service) ListCycles(ctx context.Context) ([]Cycle, error) {
	return s.store.ListCycles(ctx)
}

func (s *Service) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	return s.store.GetCycle(ctx, cycleID)
}

func validateCycleInput(in CycleInput) (CycleInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", ErrInvalidCycle)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return in, fmt.Errorf("%w: start and end dates are required", ErrInvalidCycle)
	}
	if in.EndDate.Before(in.StartDate) {
		return in, fmt.Errorf("%w: end date is before start date", ErrInvalidCycle)
	}
	return in, nil
}

func (s *Service) CreateCycle(ctx context.Context, actorID string, in CycleInput) (Cycle, error) {
	in, err := validateCycleInput(in)
	if err != nil {
		return Cycle{}, err
	}
	id, err := s.store.CreateCycle(ctx, in, actorID)
	if err != nil {
		return Cycle{}, err
	}
	return s.store.GetCycle(ctx, id)
}

// UpdateCycle edits a cycle that has not been activated yet.
func (s *Service) UpdateCycle(ctx context.Context, cycleID string, in CycleInput) (Cycle, error) {
	in, err := validateCycleInput(in)
	if err != nil {
		return Cycle{}, err
	}
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		cycle, err := tx.LockCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle.Status != CycleStatusDraft {
			return ErrInvalidState
		}
		return tx.UpdateCycle(ctx, cycleID, in)
	})
	if err != nil {
		return Cycle{}, err
	}
	return s.store.GetCycle(ctx, cycleID)
}

// ActivateCycle opens a DRAFT cycle and instantiates one assessment per
// eligible user from the current requirements matrix. It returns the
// activated cycle and the number of assessments created.
func (s *Service) ActivateCycle(ctx context.Context, cycleID string) (Cycle, int, error) {
	var seeds []Seed
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		cycle, err := tx.LockCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		switch cycle.Status {
		case CycleStatusActive:
			return ErrCycleAlreadyActive
		case CycleStatusCompleted:
			return ErrInvalidState
		}
		if _, active, err := tx.ActiveCycle(ctx); err != nil {
			return err
		} else if active {
			return ErrActiveCycleExists
		}

		users, err := tx.ListEligibleUsers(ctx)
		if err != nil {
			return err
		}
		reqs, err := tx.ListRequirements(ctx)
		if err != nil {
			return err
		}
		seeds = BuildAssessments(users, competency.NewMatrix(reqs))
		for _, seed := range seeds {
			if _, err := tx.CreateAssessment(ctx, cycleID, seed); err != nil {
				return fmt.Errorf("instantiate assessment for %s: %w", seed.UserID, err)
			}
		}
		return tx.SetCycleStatus(ctx, cycleID, CycleStatusActive)
	})
	if err != nil {
		return Cycle{}, 0, err
	}

	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, 0, err
	}
	for _, seed := range seeds {
		s.notify(ctx, seed.UserID, notifications.TypeAssessmentOpened,
			"Assessment opened", fmt.Sprintf("The %s assessment is open for your self-assessment.", cycle.Name))
	}
	return cycle, len(seeds), nil
}

// CompleteCycle closes an ACTIVE cycle. Its assessments become read-only.
func (s *Service) CompleteCycle(ctx context.Context, cycleID string) (Cycle, error) {
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		cycle, err := tx.LockCycle(ctx, cycleID)
		if err != nil {
			return err
		}
		if cycle.Status != CycleStatusActive {
			return ErrInvalidState
		}
		return tx.SetCycleStatus(ctx, cycleID, CycleStatusCompleted)
	})
	if err != nil {
		return Cycle{}, err
	}
	return s.store.GetCycle(ctx, cycleID)
}

// StartSelfAssessment creates the caller's assessment in the active cycle
// when activation did not produce one.
func (s *Service) StartSelfAssessment(ctx context.Context, actor auth.UserContext) (View, error) {
	var id string
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		cycle, active, err := tx.ActiveCycle(ctx)
		if err != nil {
			return err
		}
		if !active {
			return ErrNoActiveCycle
		}
		if _, exists, err := tx.FindAssessment(ctx, actor.UserID, cycle.ID); err != nil {
			return err
		} else if exists {
			return ErrDuplicateAssessment
		}
		user, ok, err := tx.EligibleUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotEligible
		}
		reqs, err := tx.ListRequirements(ctx)
		if err != nil {
			return err
		}
		seeds := BuildAssessments([]EligibleUser{user}, competency.NewMatrix(reqs))
		if len(seeds) == 0 {
			return ErrNotEligible
		}
		id, err = tx.CreateAssessment(ctx, cycle.ID, seeds[0])
		return err
	})
	if err != nil {
		return View{}, err
	}
	return s.Get(ctx, actor, id)
}

func (s *Service) Get(ctx context.Context, actor auth.UserContext, assessmentID string) (View, error) {
	a, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return View{}, err
	}
	relation := ResolveRelation(actor, a.UserID, a.LeaderID)
	if !relation.CanView() {
		return View{}, ErrForbidden
	}
	details, err := s.store.ListDetails(ctx, assessmentID)
	if err != nil {
		return View{}, err
	}
	return View{Assessment: a, Relation: relation, Details: details, Summary: Summarize(details)}, nil
}

// List scopes results to the caller: reviewers see everything, others see
// their own assessments or those of the teams they lead.
func (s *Service) List(ctx context.Context, actor auth.UserContext, filter Filter) ([]Assessment, int, error) {
	return s.store.ListAssessments(ctx, scopeFilter(actor, filter))
}

func scopeFilter(actor auth.UserContext, filter Filter) Filter {
	if actor.IsReviewer() {
		return filter
	}
	switch filter.UserID {
	case "":
		filter.OwnerOrLeader = actor.UserID
	case actor.UserID:
	default:
		filter.LeaderID = actor.UserID
	}
	return filter
}

// lockForWrite loads the assessment under a row lock and resolves the
// actor's relation to it.
func lockForWrite(ctx context.Context, tx StoreAPI, actor auth.UserContext, assessmentID string) (Assessment, Relation, error) {
	a, err := tx.LockAssessment(ctx, assessmentID)
	if err != nil {
		return Assessment{}, RelationNone, err
	}
	relation := ResolveRelation(actor, a.UserID, a.LeaderID)
	if !relation.CanView() {
		return Assessment{}, RelationNone, ErrForbidden
	}
	if a.CycleStatus == CycleStatusCompleted {
		return Assessment{}, RelationNone, ErrLocked
	}
	return a, relation, nil
}

// SubmitScores writes levels for the current phase's field and refreshes the
// stored averages. A nil level clears a previously saved value.
func (s *Service) SubmitScores(ctx context.Context, actor auth.UserContext, assessmentID string, scores map[string]*int) (View, error) {
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		a, relation, err := lockForWrite(ctx, tx, actor, assessmentID)
		if err != nil {
			return err
		}
		field, ok := PhaseField(a.Status)
		if !ok {
			return ErrLocked
		}
		if err := AuthorizeWrite(a.Status, relation, field); err != nil {
			return err
		}
		details, err := tx.ListDetails(ctx, assessmentID)
		if err != nil {
			return err
		}
		if err := ValidateScores(details, scores); err != nil {
			return err
		}
		for competencyID, level := range scores {
			if err := tx.SetDetailLevel(ctx, assessmentID, competencyID, field, level); err != nil {
				return err
			}
		}
		selfAvg, finalAvg := Averages(ApplyScores(details, field, scores))
		_, err = tx.SaveProgress(ctx, assessmentID, selfAvg, finalAvg)
		return err
	})
	if err != nil {
		return View{}, err
	}
	return s.Get(ctx, actor, assessmentID)
}

func (s *Service) SetFeedback(ctx context.Context, actor auth.UserContext, assessmentID, feedback string) (View, error) {
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		a, relation, err := lockForWrite(ctx, tx, actor, assessmentID)
		if err != nil {
			return err
		}
		if err := AuthorizeWrite(a.Status, relation, FieldFeedback); err != nil {
			return err
		}
		_, err = tx.SetFeedback(ctx, assessmentID, strings.TrimSpace(feedback))
		return err
	})
	if err != nil {
		return View{}, err
	}
	return s.Get(ctx, actor, assessmentID)
}

// Advance closes the current phase. expectedVersion, when given, must match
// the stored version or the call fails with ErrStaleVersion.
func (s *Service) Advance(ctx context.Context, actor auth.UserContext, assessmentID string, expectedVersion *int) (View, error) {
	var before Assessment
	var next string
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		a, relation, err := lockForWrite(ctx, tx, actor, assessmentID)
		if err != nil {
			return err
		}
		if err := AuthorizeAdvance(a.Status, relation); err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != a.Version {
			return ErrStaleVersion
		}
		details, err := tx.ListDetails(ctx, assessmentID)
		if err != nil {
			return err
		}
		next, err = Advance(a.Status, details)
		if err != nil {
			return err
		}
		if _, err := tx.SetStatus(ctx, assessmentID, next); err != nil {
			return err
		}
		selfAvg, finalAvg := Averages(details)
		_, err = tx.SaveProgress(ctx, assessmentID, selfAvg, finalAvg)
		before = a
		return err
	})
	if err != nil {
		return View{}, err
	}
	s.notifyAdvance(ctx, before, next)
	return s.Get(ctx, actor, assessmentID)
}

func (s *Service) notifyAdvance(ctx context.Context, a Assessment, next string) {
	switch next {
	case StatusLeaderAssessing:
		if a.LeaderID != "" && a.LeaderID != a.UserID {
			s.notify(ctx, a.LeaderID, notifications.TypeAssessmentAdvanced,
				"Assessment ready for review", fmt.Sprintf("%s submitted their self-assessment for %s.", a.UserName, a.CycleName))
		}
	case StatusDiscussion:
		s.notify(ctx, a.UserID, notifications.TypeAssessmentAdvanced,
			"Assessment in discussion", fmt.Sprintf("Your %s assessment moved to discussion.", a.CycleName))
	case StatusDone:
		s.notify(ctx, a.UserID, notifications.TypeAssessmentCompleted,
			"Assessment completed", fmt.Sprintf("Your %s assessment is complete.", a.CycleName))
	}
}

// CycleReport summarises every assessment of a cycle for HR.
func (s *Service) CycleReport(ctx context.Context, cycleID string) (CycleReport, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return CycleReport{}, err
	}
	items, _, err := s.store.ListAssessments(ctx, Filter{CycleID: cycleID})
	if err != nil {
		return CycleReport{}, err
	}
	report := CycleReport{Cycle: cycle, ByStatus: map[string]int{}, Rows: make([]ReportRow, 0, len(items))}
	for _, a := range items {
		details, err := s.store.ListDetails(ctx, a.ID)
		if err != nil {
			return CycleReport{}, err
		}
		report.ByStatus[a.Status]++
		report.Rows = append(report.Rows, ReportRow{
			AssessmentID:   a.ID,
			UserID:         a.UserID,
			UserName:       a.UserName,
			Status:         a.Status,
			SelfScoreAvg:   a.SelfScoreAvg,
			FinalScoreAvg:  a.FinalScoreAvg,
			Underqualified: SumUnderqualified(Gaps(details)),
		})
	}
	return report, nil
}

// LatestCompleted returns the user's most recent DONE assessment with its
// details, if any.
func (s *Service) LatestCompleted(ctx context.Context, userID string) (View, bool, error) {
	items, _, err := s.store.ListAssessments(ctx, Filter{UserID: userID, Status: StatusDone, Limit: 1})
	if err != nil {
		return View{}, false, err
	}
	if len(items) == 0 {
		return View{}, false, nil
	}
	details, err := s.store.ListDetails(ctx, items[0].ID)
	if err != nil {
		return View{}, false, err
	}
	return View{Assessment: items[0], Relation: RelationOwner, Details: details, Summary: Summarize(details)}, true, nil
}

func (s *Service) notify(ctx context.Context, userID, ntype, title, body string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, userID, ntype, title, body)
}
