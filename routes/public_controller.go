package routes

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/dynaform/dynaform/app"
	"github.com/dynaform/dynaform/httpx"
	"github.com/dynaform/dynaform/model"
	"github.com/dynaform/dynaform/validate"
)

// PublicListForms returns every form that has at least one field, newest
// first, trimmed to the shape a form picker needs.
func PublicListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT f.id, f.title, f.description, f.created_at
			FROM form f
			WHERE EXISTS (SELECT 1 FROM form_field x WHERE x.form_id = f.id)
			ORDER BY f.created_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_public_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.FormSummary{}
		for rows.Next() {
			f := model.FormSummary{}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_public_forms.scan", err)
				return
			}
			forms = append(forms, f)
		}

		render.JSON(w, r, forms)
	}
}

// PublicGetForm returns one form with fields sorted by their order value.
func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := loadForm(r.Context(), app.DB, chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_public_form", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "get_public_form", "Form", chi.URLParam(r, "id"))
			return
		}

		form.SortFields()
		render.JSON(w, r, map[string]any{
			"_id":         form.ID,
			"title":       form.Title,
			"description": form.Description,
			"fields":      form.Fields,
		})
	}
}

// SubmitForm validates a public submission against the live form schema and
// persists it together with the form version and a structural snapshot. The
// snapshot never changes afterwards, whatever happens to the live form.
func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			FormID  string         `json:"formId"`
			Answers map[string]any `json:"answers"`
		}{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogBadRequest(w, r, "request.parse_body", "invalid request body")
			return
		}
		if payload.FormID == "" || payload.Answers == nil {
			httpx.LogBadRequest(w, r, "submit.required", "formId and answers are required")
			return
		}

		form, err := loadForm(r.Context(), app.DB, payload.FormID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.submit.load_form", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "submit", "Form", payload.FormID)
			return
		}

		fieldErrors, err := validate.Submission(form, payload.Answers)
		if err == validate.ErrNoFields {
			httpx.LogBadRequest(w, r, "submit.no_fields", "This form has no fields and cannot be submitted")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "submit.validate", err)
			return
		}
		if len(fieldErrors) > 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]any{
				"errors": fieldErrors,
			})
			return
		}

		snapshot, err := json.Marshal(form.Snapshot())
		if err != nil {
			httpx.LogInternalError(w, r, "submit.snapshot", err)
			return
		}
		answers, err := json.Marshal(payload.Answers)
		if err != nil {
			httpx.LogInternalError(w, r, "submit.answers", err)
			return
		}

		submissionID := uuid.NewString()
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO submission (id, form_id, form_version, form_snapshot, answers, submitted_at, ip, user_agent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			submissionID,
			form.ID,
			form.Version,
			string(snapshot),
			string(answers),
			time.Now().UTC(),
			clientIP(r),
			r.UserAgent(),
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_submission", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":      "Form submitted successfully",
			"submissionId": submissionID,
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
