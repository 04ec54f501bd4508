package emails

import "errors"

var (
	ErrTemplateNotFound = errors.New("email template not found")
	ErrLogNotFound      = errors.New("email log not found")
	ErrCodeTaken        = errors.New("template code already exists")
	ErrInvalidTemplate  = errors.New("template code, subject and body are required")
	ErrNotFailed        = errors.New("only failed emails can be resent")
	ErrNoRecipient      = errors.New("recipient is required")
	ErrNoContent        = errors.New("email has no rendered content to resend")
)
