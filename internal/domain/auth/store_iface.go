package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	InTx(ctx context.Context, fn func(tx StoreAPI) error) error
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	CreateSession(ctx context.Context, userID, ip string, expires time.Time) (string, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
	CreateVerificationToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	LockVerificationToken(ctx context.Context, tokenHash string) (VerificationToken, error)
	ActivateUser(ctx context.Context, userID, passwordHash string) error
	MarkTokenUsed(ctx context.Context, tokenID string) error
	InvalidateOtherTokens(ctx context.Context, userID, keepTokenID string) error
	HasPermission(ctx context.Context, roleName, permission string) (bool, error)
	SetMFASecret(ctx context.Context, userID string, sealed []byte) error
	GetMFASecret(ctx context.Context, userID string) ([]byte, error)
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
}
