package team

import (
	"context"
	"fmt"
	"strings"

	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/notifications"
)

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

func (s *Service) List(ctx context.Context) ([]Team, error) {
	return s.store.ListTeams(ctx)
}

func (s *Service) Get(ctx context.Context, teamID string) (Details, error) {
	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return Details{}, err
	}
	members, err := s.store.ListMembers(ctx, teamID)
	if err != nil {
		return Details{}, err
	}
	return Details{Team: t, Members: members}, nil
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, ErrInvalidName
	}
	return in, nil
}

func (s *Service) Create(ctx context.Context, in Input) (Team, error) {
	in, err := normalize(in)
	if err != nil {
		return Team{}, err
	}
	id, err := s.store.CreateTeam(ctx, in)
	if err != nil {
		return Team{}, err
	}
	return s.store.GetTeam(ctx, id)
}

func (s *Service) Update(ctx context.Context, teamID string, in Input) (Team, error) {
	in, err := normalize(in)
	if err != nil {
		return Team{}, err
	}
	if err := s.store.UpdateTeam(ctx, teamID, in); err != nil {
		return Team{}, err
	}
	return s.store.GetTeam(ctx, teamID)
}

// Delete unassigns every member, clears the leadership and removes the team.
// Deleting a populated team is allowed; the result reports how many members
// were affected.
func (s *Service) Delete(ctx context.Context, teamID string) (DeleteResult, error) {
	var result DeleteResult
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		t, err := tx.LockTeam(ctx, teamID)
		if err != nil {
			return err
		}
		result.Team = t
		if t.LeaderID != "" {
			if err := tx.SetTeamLeader(ctx, teamID, ""); err != nil {
				return err
			}
		}
		cleared, err := tx.UnassignMembers(ctx, teamID)
		if err != nil {
			return err
		}
		result.MembersCleared = cleared
		if err := tx.DeleteTeam(ctx, teamID); err != nil {
			return err
		}
		if t.LeaderID != "" {
			return revertLeaderRole(ctx, tx, t.LeaderID)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return result, nil
}

// SetLeader makes userID the team's leader. The user joins the team and gets
// the LEADER role; the previous leader drops back to EMPLOYEE unless they
// still lead another team. ADMIN and HR keep their roles.
func (s *Service) SetLeader(ctx context.Context, teamID, userID string) (Team, error) {
	var previous string
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		t, err := tx.LockTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if t.LeaderID == userID {
			return nil
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.Status != auth.UserStatusActive {
			return ErrUserInactive
		}
		if user.TeamID != teamID {
			if err := leaveTeam(ctx, tx, user); err != nil {
				return err
			}
			if err := tx.SetUserTeam(ctx, userID, teamID); err != nil {
				return err
			}
		}
		if err := tx.SetTeamLeader(ctx, teamID, userID); err != nil {
			return err
		}
		if !auth.IsReviewer(user.Role) {
			if err := tx.SetUserRole(ctx, userID, auth.RoleLeader); err != nil {
				return err
			}
		}
		previous = t.LeaderID
		if previous != "" {
			return revertLeaderRole(ctx, tx, previous)
		}
		return nil
	})
	if err != nil {
		return Team{}, err
	}
	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return Team{}, err
	}
	if t.LeaderID == userID {
		s.notify(ctx, userID, "Team leadership", fmt.Sprintf("You now lead %s.", t.Name))
	}
	if previous != "" && previous != userID {
		s.notify(ctx, previous, "Team leadership", fmt.Sprintf("You no longer lead %s.", t.Name))
	}
	return t, nil
}

// AddMember moves the user into the team, leaving any previous team.
func (s *Service) AddMember(ctx context.Context, teamID, userID string) (Details, error) {
	var changed bool
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.LockTeam(ctx, teamID); err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.TeamID == teamID {
			return nil
		}
		if err := leaveTeam(ctx, tx, user); err != nil {
			return err
		}
		changed = true
		return tx.SetUserTeam(ctx, userID, teamID)
	})
	if err != nil {
		return Details{}, err
	}
	out, err := s.Get(ctx, teamID)
	if err == nil && changed {
		s.notify(ctx, userID, "Team membership", fmt.Sprintf("You joined %s.", out.Name))
	}
	return out, err
}

// RemoveMember detaches the user from the team. Removing the leader also
// clears the leadership.
func (s *Service) RemoveMember(ctx context.Context, teamID, userID string) (Details, error) {
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		if _, err := tx.LockTeam(ctx, teamID); err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.TeamID != teamID {
			return ErrNotMember
		}
		if err := leaveTeam(ctx, tx, user); err != nil {
			return err
		}
		return tx.SetUserTeam(ctx, userID, "")
	})
	if err != nil {
		return Details{}, err
	}
	return s.Get(ctx, teamID)
}

// leaveTeam clears the leadership of the user's current team when they hold
// it.
func leaveTeam(ctx context.Context, tx StoreAPI, user UserRef) error {
	if user.TeamID == "" {
		return nil
	}
	current, err := tx.LockTeam(ctx, user.TeamID)
	if err != nil {
		return err
	}
	if current.LeaderID != user.ID {
		return nil
	}
	if err := tx.SetTeamLeader(ctx, current.ID, ""); err != nil {
		return err
	}
	return revertLeaderRole(ctx, tx, user.ID)
}

func revertLeaderRole(ctx context.Context, tx StoreAPI, userID string) error {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != auth.RoleLeader {
		return nil
	}
	led, err := tx.CountLedTeams(ctx, userID, "")
	if err != nil {
		return err
	}
	if led > 0 {
		return nil
	}
	return tx.SetUserRole(ctx, userID, auth.RoleEmployee)
}

func (s *Service) notify(ctx context.Context, userID, title, body string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, userID, notifications.TypeTeamChanged, title, body)
}
