package profile

import "errors"

var (
	ErrNotFound        = errors.New("profile update request not found")
	ErrPendingExists   = errors.New("a profile update request is already pending")
	ErrNoChanges       = errors.New("no changes requested")
	ErrInvalidField    = errors.New("invalid profile field")
	ErrAlreadyReviewed = errors.New("profile update request already reviewed")
	ErrForbidden       = errors.New("forbidden")
	ErrNoteRequired    = errors.New("a review note is required when rejecting")
)
