package routes

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/dynaform/dynaform/app"
	"github.com/dynaform/dynaform/httpx"
	"github.com/dynaform/dynaform/model"
)

// submissionItem is one row of a submission listing. FormRef shadows the
// embedded FormID so the formId key carries the live form reference, which
// is null once the form has been deleted; the snapshot inside the
// submission is unaffected either way.
type submissionItem struct {
	model.Submission
	FormRef any `json:"formId"`
}

func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listSubmissions(app, w, r, r.URL.Query().Get("formId"), true)
	}
}

func ListFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listSubmissions(app, w, r, chi.URLParam(r, "formId"), false)
	}
}

func listSubmissions(app app.App, w http.ResponseWriter, r *http.Request, formID string, withDescription bool) {
	q := httpx.ParsePageQuery(r)

	where := "1=1"
	args := []any{}
	if formID != "" {
		where += " AND s.form_id = ?"
		args = append(args, formID)
	}
	// timestamps are stored and bound as UTC so the string comparison the
	// driver ends up doing is also a chronological one
	if q.StartDate != nil {
		where += " AND s.submitted_at >= ?"
		args = append(args, q.StartDate.UTC())
	}
	if q.EndDate != nil {
		where += " AND s.submitted_at <= ?"
		args = append(args, q.EndDate.UTC())
	}

	var total int
	err := app.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM submission s WHERE "+where,
		args...,
	).Scan(&total)
	if err != nil {
		httpx.LogInternalError(w, r, "db.get_submissions.count", err)
		return
	}

	rows, err := app.QueryContext(r.Context(), `
		SELECT
			s.id, s.form_id, s.form_version, s.form_snapshot, s.answers,
			s.submitted_at, s.ip, s.user_agent,
			f.title, f.description
		FROM submission s
		LEFT OUTER JOIN form f ON (f.id = s.form_id)
		WHERE `+where+`
		ORDER BY s.submitted_at DESC
		LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset())...,
	)
	if err != nil {
		httpx.LogInternalError(w, r, "db.get_submissions", err)
		return
	}
	defer rows.Close()

	submissions := []submissionItem{}
	for rows.Next() {
		var title, description sql.NullString
		sub, err := scanSubmission(rows, &title, &description)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_submissions.scan", err)
			return
		}

		item := submissionItem{Submission: sub}
		if title.Valid {
			ref := map[string]any{
				"_id":   sub.FormID,
				"title": title.String,
			}
			if withDescription {
				ref["description"] = description.String
			}
			item.FormRef = ref
		}
		submissions = append(submissions, item)
	}

	render.JSON(w, r, map[string]any{
		"submissions": submissions,
		"pagination":  q.Pagination(total),
	})
}

func GetSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submissionID := chi.URLParam(r, "id")

		row := app.QueryRowContext(r.Context(), `
			SELECT id, form_id, form_version, form_snapshot, answers, submitted_at, ip, user_agent
			FROM submission
			WHERE id = ?`,
			submissionID,
		)

		sub := model.Submission{}
		var snapshot, answers string
		err := row.Scan(&sub.ID, &sub.FormID, &sub.FormVersion, &snapshot, &answers,
			&sub.SubmittedAt, &sub.IP, &sub.UserAgent)
		if err == sql.ErrNoRows {
			httpx.LogNotFound(w, r, "get_submission", "Submission", submissionID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_submission", err)
			return
		}
		if err := unmarshalSubmissionJSON(&sub, snapshot, answers); err != nil {
			httpx.LogInternalError(w, r, "db.get_submission.parse", err)
			return
		}

		// live form reference, null when the form was deleted since
		liveForm, err := loadForm(r.Context(), app.DB, sub.FormID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_submission.form", err)
			return
		}

		detail := struct {
			model.Submission
			FormRef any                `json:"formId"`
			Form    model.FormSnapshot `json:"form"`
		}{
			Submission: sub,
			Form:       sub.FormSnapshot,
		}
		if liveForm != nil {
			detail.FormRef = liveForm
		}

		render.JSON(w, r, detail)
	}
}

func scanSubmission(rows *sql.Rows, extra ...any) (sub model.Submission, err error) {
	var snapshot, answers string
	dest := []any{
		&sub.ID, &sub.FormID, &sub.FormVersion, &snapshot, &answers,
		&sub.SubmittedAt, &sub.IP, &sub.UserAgent,
	}
	err = rows.Scan(append(dest, extra...)...)
	if err != nil {
		return
	}
	err = unmarshalSubmissionJSON(&sub, snapshot, answers)
	return
}

func unmarshalSubmissionJSON(sub *model.Submission, snapshot, answers string) error {
	if err := json.Unmarshal([]byte(snapshot), &sub.FormSnapshot); err != nil {
		return err
	}
	return json.Unmarshal([]byte(answers), &sub.Answers)
}
