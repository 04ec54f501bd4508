package team

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"talenthub/internal/domain/auth"
)

type fakeStore struct {
	teams map[string]Team
	users map[string]UserRef
	seq   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{teams: map[string]Team{}, users: map[string]UserRef{}}
}

func (f *fakeStore) InTx(_ context.Context, fn func(tx StoreAPI) error) error { return fn(f) }

func (f *fakeStore) ListTeams(context.Context) ([]Team, error) {
	out := []Team{}
	for id := range f.teams {
		t, _ := f.GetTeam(context.Background(), id)
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetTeam(_ context.Context, id string) (Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return Team{}, ErrNotFound
	}
	t.MemberCount = 0
	for _, u := range f.users {
		if u.TeamID == id {
			t.MemberCount++
		}
	}
	return t, nil
}

func (f *fakeStore) LockTeam(ctx context.Context, id string) (Team, error) { return f.GetTeam(ctx, id) }

func (f *fakeStore) CreateTeam(_ context.Context, in Input) (string, error) {
	for _, t := range f.teams {
		if t.Name == in.Name {
			return "", ErrNameTaken
		}
	}
	f.seq++
	id := fmt.Sprintf("t%d", f.seq)
	f.teams[id] = Team{ID: id, Name: in.Name, Description: in.Description}
	return id, nil
}

func (f *fakeStore) UpdateTeam(_ context.Context, id string, in Input) error {
	t, ok := f.teams[id]
	if !ok {
		return ErrNotFound
	}
	t.Name, t.Description = in.Name, in.Description
	f.teams[id] = t
	return nil
}

func (f *fakeStore) DeleteTeam(_ context.Context, id string) error {
	delete(f.teams, id)
	return nil
}

func (f *fakeStore) ListMembers(_ context.Context, id string) ([]Member, error) {
	out := []Member{}
	for _, u := range f.users {
		if u.TeamID == id {
			out = append(out, Member{UserID: u.ID, Role: u.Role, IsLeader: f.teams[id].LeaderID == u.ID})
		}
	}
	return out, nil
}

func (f *fakeStore) UnassignMembers(_ context.Context, id string) (int, error) {
	count := 0
	for uid, u := range f.users {
		if u.TeamID == id {
			u.TeamID = ""
			f.users[uid] = u
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (UserRef, error) {
	u, ok := f.users[id]
	if !ok {
		return UserRef{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) SetUserTeam(_ context.Context, userID, teamID string) error {
	u := f.users[userID]
	u.TeamID = teamID
	f.users[userID] = u
	return nil
}

func (f *fakeStore) SetUserRole(_ context.Context, userID, role string) error {
	u := f.users[userID]
	u.Role = role
	f.users[userID] = u
	return nil
}

func (f *fakeStore) SetTeamLeader(_ context.Context, teamID, leaderID string) error {
	t := f.teams[teamID]
	t.LeaderID = leaderID
	f.teams[teamID] = t
	return nil
}

func (f *fakeStore) CountLedTeams(_ context.Context, userID, exclude string) (int, error) {
	count := 0
	for id, t := range f.teams {
		if t.LeaderID == userID && id != exclude {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) addUser(id, role string) {
	f.users[id] = UserRef{ID: id, Role: role, Status: auth.UserStatusActive}
}

func TestSetLeaderRevertsPreviousLeader(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", auth.RoleEmployee)
	store.addUser("bob", auth.RoleEmployee)
	svc := NewService(store, nil)
	ctx := context.Background()

	team, err := svc.Create(ctx, Input{Name: " Platform "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetLeader(ctx, team.ID, "alice"); err != nil {
		t.Fatalf("set leader: %v", err)
	}
	if store.users["alice"].Role != auth.RoleLeader || store.users["alice"].TeamID != team.ID {
		t.Fatalf("expected alice promoted into team, got %+v", store.users["alice"])
	}

	updated, err := svc.SetLeader(ctx, team.ID, "bob")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if updated.LeaderID != "bob" || store.users["bob"].Role != auth.RoleLeader {
		t.Fatalf("expected bob to lead, got %+v / %+v", updated, store.users["bob"])
	}
	if store.users["alice"].Role != auth.RoleEmployee {
		t.Fatalf("expected alice reverted to EMPLOYEE, got %s", store.users["alice"].Role)
	}
}

func TestSetLeaderKeepsRoleWhenStillLeadingElsewhere(t *testing.T) {
	store := newFakeStore()
	store.addUser("alice", auth.RoleLeader)
	store.addUser("bob", auth.RoleEmployee)
	store.addUser("hr", auth.RoleHR)
	svc := NewService(store, nil)
	ctx := context.Background()

	a, _ := svc.Create(ctx, Input{Name: "A"})
	b, _ := svc.Create(ctx, Input{Name: "B"})
	store.teams[a.ID] = Team{ID: a.ID, Name: "A", LeaderID: "alice"}
	store.teams[b.ID] = Team{ID: b.ID, Name: "B", LeaderID: "alice"}

	if _, err := svc.SetLeader(ctx, a.ID, "bob"); err != nil {
		t.Fatalf("set leader: %v", err)
	}
	if store.users["alice"].Role != auth.RoleLeader {
		t.Fatalf("alice still leads B, got role %s", store.users["alice"].Role)
	}

	if _, err := svc.SetLeader(ctx, b.ID, "hr"); err != nil {
		t.Fatalf("set hr leader: %v", err)
	}
	if store.users["hr"].Role != auth.RoleHR {
		t.Fatalf("HR must keep its role, got %s", store.users["hr"].Role)
	}
	if store.users["alice"].Role != auth.RoleEmployee {
		t.Fatalf("expected alice reverted, got %s", store.users["alice"].Role)
	}
}

func TestSetLeaderRejectsInactiveUser(t *testing.T) {
	store := newFakeStore()
	store.users["p"] = UserRef{ID: "p", Role: auth.RoleEmployee, Status: auth.UserStatusPending}
	svc := NewService(store, nil)
	team, _ := svc.Create(context.Background(), Input{Name: "A"})
	if _, err := svc.SetLeader(context.Background(), team.ID, "p"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected inactive error, got %v", err)
	}
	if _, err := svc.SetLeader(context.Background(), team.ID, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestDeleteUnassignsMembersAndClearsLeadership(t *testing.T) {
	store := newFakeStore()
	store.addUser("lead", auth.RoleEmployee)
	store.addUser("m1", auth.RoleEmployee)
	store.addUser("m2", auth.RoleEmployee)
	svc := NewService(store, nil)
	ctx := context.Background()

	team, _ := svc.Create(ctx, Input{Name: "Core"})
	if _, err := svc.SetLeader(ctx, team.ID, "lead"); err != nil {
		t.Fatalf("set leader: %v", err)
	}
	for _, id := range []string{"m1", "m2"} {
		if _, err := svc.AddMember(ctx, team.ID, id); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	result, err := svc.Delete(ctx, team.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.MembersCleared != 3 {
		t.Fatalf("expected 3 members cleared, got %d", result.MembersCleared)
	}
	for id, u := range store.users {
		if u.TeamID != "" {
			t.Fatalf("expected %s unassigned", id)
		}
	}
	if store.users["lead"].Role != auth.RoleEmployee {
		t.Fatalf("expected leader reverted, got %s", store.users["lead"].Role)
	}
	if _, ok := store.teams[team.ID]; ok {
		t.Fatal("expected team deleted")
	}
}

func TestRemoveMember(t *testing.T) {
	store := newFakeStore()
	store.addUser("lead", auth.RoleEmployee)
	store.addUser("m1", auth.RoleEmployee)
	svc := NewService(store, nil)
	ctx := context.Background()
	team, _ := svc.Create(ctx, Input{Name: "Core"})
	other, _ := svc.Create(ctx, Input{Name: "Other"})
	_, _ = svc.SetLeader(ctx, team.ID, "lead")

	if _, err := svc.RemoveMember(ctx, other.ID, "lead"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected not member, got %v", err)
	}
	details, err := svc.RemoveMember(ctx, team.ID, "lead")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if details.LeaderID != "" || len(details.Members) != 0 {
		t.Fatalf("expected empty leaderless team, got %+v", details)
	}
	if store.users["lead"].Role != auth.RoleEmployee {
		t.Fatalf("expected role reverted, got %s", store.users["lead"].Role)
	}
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	if _, err := svc.Create(context.Background(), Input{Name: "  "}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}
