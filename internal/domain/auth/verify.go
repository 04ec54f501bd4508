package auth

import "time"

type verifyAction int

const (
	verifyActivate verifyAction = iota + 1
	verifyAlreadyActive
)

// planVerification decides what a verification link does. An account that is
// already ACTIVE short-circuits before any token checks so repeated clicks on
// the same link stay harmless.
func planVerification(tok VerificationToken, now time.Time) (verifyAction, error) {
	switch tok.UserStatus {
	case UserStatusActive:
		return verifyAlreadyActive, nil
	case UserStatusInactive:
		return 0, ErrAccountNotActive
	}
	if tok.UsedAt != nil || tok.InvalidatedAt != nil {
		return 0, ErrTokenInvalid
	}
	if !now.Before(tok.ExpiresAt) {
		return 0, ErrTokenExpired
	}
	return verifyActivate, nil
}
