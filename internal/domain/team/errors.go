package team

import "errors"

var (
	ErrNotFound     = errors.New("team not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNameTaken    = errors.New("team name already in use")
	ErrInvalidName  = errors.New("team name is required")
	ErrNotMember    = errors.New("user is not a member of this team")
	ErrUserInactive = errors.New("user is not active")
)
