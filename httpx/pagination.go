package httpx

import (
	"net/http"
	"strconv"
	"time"
)

// PageQuery carries the parsed page/limit/date-range query parameters of the
// submission listings.
type PageQuery struct {
	Page      int
	Limit     int
	StartDate *time.Time
	EndDate   *time.Time
}

// Pagination is the metadata block returned next to every paginated listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ParsePageQuery reads page (default 1), limit (default 10), startDate and
// endDate from the query string. Dates accept RFC3339 or plain YYYY-MM-DD;
// unparseable values are ignored. The submittedAt range is inclusive on both
// ends.
func ParsePageQuery(r *http.Request) (q PageQuery) {
	q.Page = intParam(r, "page", 1)
	q.Limit = intParam(r, "limit", 10)
	q.StartDate = dateParam(r, "startDate")
	q.EndDate = dateParam(r, "endDate")
	return
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

func (q PageQuery) Pagination(total int) Pagination {
	pages := total / q.Limit
	if total%q.Limit != 0 {
		pages++
	}
	return Pagination{
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
		Pages: pages,
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func dateParam(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
