package workrequest

import (
	"context"
	"time"
)

type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error
	Create(ctx context.Context, userID string, in CreateInput, days float64) (string, error)
	Get(ctx context.Context, requestID string) (Request, error)
	Lock(ctx context.Context, requestID string) (Request, error)
	List(ctx context.Context, filter Filter) ([]Request, int, error)
	Decide(ctx context.Context, requestID, status, approverID, rejectionReason string) error
	Delete(ctx context.Context, requestID string) error
	HasOverlap(ctx context.Context, userID, requestType string, start, end time.Time) (bool, error)
	LeaderOf(ctx context.Context, userID string) (string, error)
}
