package timesheet

import "errors"

var (
	ErrInvalidRange = errors.New("invalid date range")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrExport       = errors.New("timesheet export failed")
)
