package profile

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error
	GetProfile(ctx context.Context, userID string) (Profile, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, userID string, changes, previous Changes) (string, error)
	Get(ctx context.Context, requestID string) (Request, error)
	Lock(ctx context.Context, requestID string) (Request, error)
	List(ctx context.Context, filter Filter) ([]Request, int, error)
	Apply(ctx context.Context, userID string, changes Changes) error
	Review(ctx context.Context, requestID, status, reviewerID, note string) error
}
