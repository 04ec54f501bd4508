package shared

import (
	"net/http"
	"strconv"

	"talenthub/internal/platform/requestctx"
	"talenthub/internal/transport/http/api"
)

// Pagination is the limit/offset window of a list endpoint.
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads ?limit=&offset=. Missing or malformed values fall back
// to defaultLimit and 0; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	page := Pagination{Limit: defaultLimit}
	query := r.URL.Query()
	if n, err := strconv.Atoi(query.Get("limit")); err == nil && n > 0 {
		page.Limit = n
	}
	if n, err := strconv.Atoi(query.Get("offset")); err == nil && n > 0 {
		page.Offset = n
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}

// WritePage sends a paged list and mirrors the total in X-Total-Count.
func WritePage(w http.ResponseWriter, r *http.Request, items any, total int, page Pagination) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, api.Paged{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, requestctx.GetRequestID(r.Context()))
}
