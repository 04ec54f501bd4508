package timesheet

import (
	"bytes"
	"context"
	"time"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/workrequest"
)

// RequestSource yields the work requests of some users inside a range.
type RequestSource interface {
	ListInRange(ctx context.Context, userIDs []string, from, to time.Time) ([]workrequest.Request, error)
}

type Service struct {
	store    StoreAPI
	requests RequestSource
}

func NewService(store StoreAPI, requests RequestSource) *Service {
	return &Service{store: store, requests: requests}
}

// ForUser builds the calendar of one user. Users may read their own sheet;
// their team leader and ADMIN/HR may read anyone's.
func (s *Service) ForUser(ctx context.Context, actor auth.UserContext, userID string, r Range) (Sheet, error) {
	if userID == "" {
		userID = actor.UserID
	}
	person, err := s.store.GetPerson(ctx, userID)
	if err != nil {
		return Sheet{}, err
	}
	if person.ID != actor.UserID && !actor.IsReviewer() && (person.LeaderID == "" || person.LeaderID != actor.UserID) {
		return Sheet{}, ErrForbidden
	}
	reqs, err := s.requests.ListInRange(ctx, []string{person.ID}, r.From, r.To)
	if err != nil {
		return Sheet{}, err
	}
	return Sheet{
		Title:    person.FullName,
		UserID:   person.ID,
		Calendar: BuildCalendar(r, reqs),
	}, nil
}

// ForTeam builds the combined calendar of a team's active members with
// per-member totals. Only the team leader and ADMIN/HR may read it.
func (s *Service) ForTeam(ctx context.Context, actor auth.UserContext, teamID string, r Range) (Sheet, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return Sheet{}, err
	}
	if !actor.IsReviewer() && (team.LeaderID == "" || team.LeaderID != actor.UserID) {
		return Sheet{}, ErrForbidden
	}
	ids := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		ids = append(ids, m.ID)
	}
	reqs, err := s.requests.ListInRange(ctx, ids, r.From, r.To)
	if err != nil {
		return Sheet{}, err
	}
	cal := BuildCalendar(r, reqs)
	members := make([]MemberTotals, 0, len(team.Members))
	for _, m := range team.Members {
		members = append(members, MemberTotals{UserID: m.ID, FullName: m.FullName, Totals: TotalsFor(cal, m.ID)})
	}
	return Sheet{Title: team.Name, TeamID: team.ID, Calendar: cal, Members: members}, nil
}

func (s *Service) ExportUser(ctx context.Context, actor auth.UserContext, userID string, r Range) (*bytes.Buffer, string, error) {
	sheet, err := s.ForUser(ctx, actor, userID, r)
	if err != nil {
		return nil, "", err
	}
	return Export(sheet)
}

func (s *Service) ExportTeam(ctx context.Context, actor auth.UserContext, teamID string, r Range) (*bytes.Buffer, string, error) {
	sheet, err := s.ForTeam(ctx, actor, teamID, r)
	if err != nil {
		return nil, "", err
	}
	return Export(sheet)
}
