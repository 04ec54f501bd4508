package team

import "context"

type UserRef struct {
	ID     string
	Role   string
	Status string
	TeamID string
}

type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error
	ListTeams(ctx context.Context) ([]Team, error)
	GetTeam(ctx context.Context, teamID string) (Team, error)
	LockTeam(ctx context.Context, teamID string) (Team, error)
	CreateTeam(ctx context.Context, in Input) (string, error)
	UpdateTeam(ctx context.Context, teamID string, in Input) error
	DeleteTeam(ctx context.Context, teamID string) error
	ListMembers(ctx context.Context, teamID string) ([]Member, error)
	UnassignMembers(ctx context.Context, teamID string) (int, error)
	GetUser(ctx context.Context, userID string) (UserRef, error)
	SetUserTeam(ctx context.Context, userID, teamID string) error
	SetUserRole(ctx context.Context, userID, role string) error
	SetTeamLeader(ctx context.Context, teamID, leaderID string) error
	CountLedTeams(ctx context.Context, userID, excludeTeamID string) (int, error)
}
