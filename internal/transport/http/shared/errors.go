package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"talenthub/internal/domain/assessment"
	"talenthub/internal/platform/requestctx"
	"talenthub/internal/transport/http/api"
)

// ErrorMapping binds a domain sentinel to an HTTP status and envelope code.
type ErrorMapping struct {
	Target error
	Status int
	Code   string
}

func BadRequest(target error) ErrorMapping {
	return ErrorMapping{Target: target, Status: http.StatusBadRequest, Code: "validation_error"}
}

func Forbidden(target error) ErrorMapping {
	return ErrorMapping{Target: target, Status: http.StatusForbidden, Code: "forbidden"}
}

func NotFound(target error) ErrorMapping {
	return ErrorMapping{Target: target, Status: http.StatusNotFound, Code: "not_found"}
}

func Conflict(target error) ErrorMapping {
	return ErrorMapping{Target: target, Status: http.StatusConflict, Code: "conflict"}
}

// WriteError maps err onto the envelope. Incomplete assessment phases become
// 422 with the missing competency ids; anything unmapped is a logged 500
// whose message is fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string, mappings ...ErrorMapping) {
	requestID := requestctx.GetRequestID(r.Context())

	var incomplete *assessment.IncompleteError
	if errors.As(err, &incomplete) {
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "incomplete_data", incomplete.Error(), map[string]any{
			"phase":                incomplete.Phase,
			"field":                incomplete.Field,
			"missingCompetencyIds": incomplete.MissingCompetencyIDs,
		}, requestID)
		return
	}
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			api.Fail(w, m.Status, m.Code, err.Error(), requestID)
			return
		}
	}
	slog.Error(fallback, "err", err, "path", r.URL.Path, "requestId", requestID)
	api.Fail(w, http.StatusInternalServerError, "internal_error", fallback, requestID)
}
