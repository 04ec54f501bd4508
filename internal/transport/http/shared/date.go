package shared

import (
	"net/http"
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// QueryRange reads optional from/to query parameters. Missing values stay
// zero; malformed values and reversed ranges are recorded on v.
func QueryRange(r *http.Request, v *Validator) (time.Time, time.Time) {
	var from, to time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, _ = v.Date("from", raw)
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, _ = v.Date("to", raw)
	}
	v.DateOrder("from", from, "to", to)
	return from, to
}
