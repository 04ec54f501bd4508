package workrequest

import "errors"

var (
	ErrNotFound        = errors.New("request not found")
	ErrInvalidType     = errors.New("invalid request type")
	ErrInvalidRange    = errors.New("end date before start date")
	ErrHalfDaySpan     = errors.New("half-day requests must start and end on the same day")
	ErrNoWorkingDays   = errors.New("request covers no working days")
	ErrReasonRequired  = errors.New("reason is required")
	ErrRejectionReason = errors.New("rejection reason is required")
	ErrAlreadyDecided  = errors.New("request has already been decided")
	ErrForbidden       = errors.New("not allowed to act on this request")
	ErrSelfApproval    = errors.New("requests cannot be decided by their owner")
	ErrOverlap         = errors.New("overlaps an existing request of the same type")
)
