package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

type listingResponse struct {
	Submissions []map[string]any `json:"submissions"`
	Pagination  struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

func submitN(t *testing.T, h http.Handler, formID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := request(t, h, http.MethodPost, "/submissions", map[string]any{
			"formId":  formID,
			"answers": map[string]any{"name": fmt.Sprintf("Person %d", i)},
		}, false)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
}

func TestSubmissionPagination(t *testing.T) {
	app := newTestApp(t)
	h := Wire(app)

	form := mustCreateForm(t, h, map[string]any{
		"title":  "Paginated",
		"fields": []map[string]any{simpleTextField("name", "Name", true)},
	})
	submitN(t, h, form.ID, 25)

	rec := request(t, h, http.MethodGet, "/submissions?page=2&limit=10", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	listing := decodeBody[listingResponse](t, rec)

	if len(listing.Submissions) != 10 {
		t.Errorf("page 2 has %d items, want 10", len(listing.Submissions))
	}
	p := listing.Pagination
	if p.Page != 2 || p.Limit != 10 || p.Total != 25 || p.Pages != 3 {
		t.Errorf("pagination = %+v, want page 2, limit 10, total 25, pages 3", p)
	}

	// last page is a partial one
	rec = request(t, h, http.MethodGet, "/submissions?page=3&limit=10", nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if len(listing.Submissions) != 5 {
		t.Errorf("page 3 has %d items, want 5", len(listing.Submissions))
	}

	// defaults: page 1, limit 10
	rec = request(t, h, http.MethodGet, "/submissions?page=bogus", nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Page != 1 || listing.Pagination.Limit != 10 {
		t.Errorf("defaults not applied: %+v", listing.Pagination)
	}
}

func TestSubmissionListingScopes(t *testing.T) {
	app := newTestApp(t)
	h := Wire(app)

	formA := mustCreateForm(t, h, map[string]any{
		"title":  "Form A",
		"fields": []map[string]any{simpleTextField("name", "Name", true)},
	})
	formB := mustCreateForm(t, h, map[string]any{
		"title":  "Form B",
		"fields": []map[string]any{simpleTextField("name", "Name", true)},
	})
	submitN(t, h, formA.ID, 3)
	submitN(t, h, formB.ID, 2)

	rec := request(t, h, http.MethodGet, "/submissions", nil, true)
	listing := decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 5 {
		t.Errorf("global total = %d, want 5", listing.Pagination.Total)
	}

	rec = request(t, h, http.MethodGet, "/submissions/form/"+formA.ID, nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 3 {
		t.Errorf("form A total = %d, want 3", listing.Pagination.Total)
	}

	rec = request(t, h, http.MethodGet, "/submissions?formId="+formB.ID, nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 2 {
		t.Errorf("form B total = %d, want 2", listing.Pagination.Total)
	}

	// live form info rides along
	if ref, ok := listing.Submissions[0]["formId"].(map[string]any); !ok || ref["title"] != "Form B" {
		t.Errorf("live form reference missing: %v", listing.Submissions[0]["formId"])
	}
}

func TestSubmissionDateRangeFilter(t *testing.T) {
	app := newTestApp(t)
	h := Wire(app)

	form := mustCreateForm(t, h, map[string]any{
		"title":  "Dated",
		"fields": []map[string]any{simpleTextField("name", "Name", true)},
	})
	submitN(t, h, form.ID, 3)

	// backdate two submissions to known days
	for i, day := range []string{"2024-01-10", "2024-02-10"} {
		ts, err := time.Parse("2006-01-02", day)
		if err != nil {
			t.Fatal(err)
		}
		_, err = app.Exec(`
			UPDATE submission
			SET submitted_at = ?
			WHERE id IN (SELECT id FROM submission ORDER BY rowid LIMIT 1 OFFSET ?)`,
			ts, i,
		)
		if err != nil {
			t.Fatal(err)
		}
	}

	rec := request(t, h, http.MethodGet,
		"/submissions?startDate=2024-01-01&endDate=2024-01-31", nil, true)
	listing := decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 1 {
		t.Errorf("january total = %d, want 1", listing.Pagination.Total)
	}

	// startDate is inclusive
	rec = request(t, h, http.MethodGet,
		"/submissions?startDate=2024-02-10&endDate=2024-02-10", nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 1 {
		t.Errorf("single-day range total = %d, want 1", listing.Pagination.Total)
	}

	rec = request(t, h, http.MethodGet, "/submissions?startDate=2024-01-01", nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 3 {
		t.Errorf("open-ended range total = %d, want 3", listing.Pagination.Total)
	}
}

// Date bounds may arrive with any UTC offset; filtering has to stay
// chronological because the driver compares the bound values as strings.
func TestSubmissionDateFilterHonorsQueryOffsets(t *testing.T) {
	app := newTestApp(t)
	h := Wire(app)

	form := mustCreateForm(t, h, map[string]any{
		"title":  "Zoned",
		"fields": []map[string]any{simpleTextField("name", "Name", true)},
	})
	submitN(t, h, form.ID, 1)

	ts := time.Date(2024, 2, 10, 23, 0, 0, 0, time.UTC)
	if _, err := app.Exec(`UPDATE submission SET submitted_at = ?`, ts); err != nil {
		t.Fatal(err)
	}

	// 2024-02-11T00:30:00+02:00 is 22:30Z, before the submission at 23:00Z
	rec := request(t, h, http.MethodGet,
		"/submissions?endDate=2024-02-11T00:30:00%2B02:00", nil, true)
	listing := decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 0 {
		t.Errorf("endDate before submission: total = %d, want 0", listing.Pagination.Total)
	}

	rec = request(t, h, http.MethodGet,
		"/submissions?startDate=2024-02-11T00:30:00%2B02:00", nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 1 {
		t.Errorf("startDate before submission: total = %d, want 1", listing.Pagination.Total)
	}

	// 01:30+02:00 is 23:30Z, after the submission
	rec = request(t, h, http.MethodGet,
		"/submissions?endDate=2024-02-11T01:30:00%2B02:00", nil, true)
	listing = decodeBody[listingResponse](t, rec)
	if listing.Pagination.Total != 1 {
		t.Errorf("endDate after submission: total = %d, want 1", listing.Pagination.Total)
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	app := newTestApp(t)
	h := Wire(app)

	rec := request(t, h, http.MethodGet, "/submissions/nope", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmissionReadsRequireAdmin(t *testing.T) {
	app := newTestApp(t)
	h := Wire(app)

	for _, path := range []string{"/submissions", "/submissions/form/x", "/submissions/x"} {
		rec := request(t, h, http.MethodGet, path, nil, false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: expected 401, got %d", path, rec.Code)
		}
	}
}
