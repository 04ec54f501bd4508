package timesheet

import "context"

type StoreAPI interface {
	GetPerson(ctx context.Context, userID string) (Person, error)
	GetTeam(ctx context.Context, teamID string) (TeamRef, error)
}
