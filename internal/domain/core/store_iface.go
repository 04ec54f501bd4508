package core

import "context"

type StoreAPI interface {
	ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error)
	GetUser(ctx context.Context, userID string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, in CreateUserInput) (string, error)
	UpdateUser(ctx context.Context, userID string, in UpdateUserInput) error
	ListBands(ctx context.Context) ([]CareerBand, error)
	GetBand(ctx context.Context, bandID string) (CareerBand, error)
	CreateBand(ctx context.Context, band CareerBand) (string, error)
	UpdateBand(ctx context.Context, bandID string, band CareerBand) error
	BandReferences(ctx context.Context, bandID string) (int, error)
	DeleteBand(ctx context.Context, bandID string) error
}
