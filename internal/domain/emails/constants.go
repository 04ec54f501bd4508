package emails

const (
	StatusQueued = "QUEUED"
	StatusSent   = "SENT"
	StatusFailed = "FAILED"

	JobDispatch = "email_dispatch"
	JobRetry    = "email_retry"
)

func ValidStatus(s string) bool {
	return s == StatusQueued || s == StatusSent || s == StatusFailed
}
