package core

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrBandCodeTaken = errors.New("career band code already in use")
	ErrBandInUse     = errors.New("career band is referenced by users or requirements")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid status")
)
