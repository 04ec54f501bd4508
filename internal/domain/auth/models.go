package auth

import "time"

const (
	UserStatusPending  = "PENDING"
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// UserContext is the authenticated session carried on each request context.
type UserContext struct {
	UserID    string
	RoleName  string
	SessionID string
}

func (u UserContext) IsReviewer() bool {
	return IsReviewer(u.RoleName)
}

type AuthUser struct {
	ID       string
	Email    string
	FullName string
	RoleName string
	Password string
	Status   string

	MFAEnabled bool
	MFASecret  []byte
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
}

type Session struct {
	ID        string
	UserID    string
	RoleName  string
	Status    string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type VerificationToken struct {
	ID            string
	UserID        string
	UserStatus    string
	ExpiresAt     time.Time
	UsedAt        *time.Time
	InvalidatedAt *time.Time
}

type VerifyResult struct {
	UserID          string `json:"userId"`
	AlreadyVerified bool   `json:"alreadyVerified"`
}
