package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/dynaform/dynaform/app"
	"github.com/dynaform/dynaform/httpx"
	"github.com/dynaform/dynaform/model"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogBadRequest(w, r, "request.parse_body", "invalid request body")
			return
		}

		if form.Title == "" {
			httpx.LogBadRequest(w, r, "create_form.title", "Title is required")
			return
		}
		if msg := checkFields(form.Fields); msg != "" {
			httpx.LogBadRequest(w, r, "create_form.fields", msg)
			return
		}

		form.ID = uuid.NewString()
		form.Version = 1
		now := time.Now().UTC()
		form.CreatedAt = now
		form.UpdatedAt = now

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO form (id, title, description, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			form.ID, form.Title, form.Description, form.Version, form.CreatedAt, form.UpdatedAt,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_form", err)
			return
		}

		for i := range form.Fields {
			if err := insertField(r.Context(), tx, form.ID, &form.Fields[i]); err != nil {
				httpx.LogInternalError(w, r, "db.create_form.fields", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.create_form.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, form)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT id, title, description, version, created_at, updated_at
			FROM form
			ORDER BY created_at DESC`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		index := map[string]int{}
		for rows.Next() {
			f := model.Form{Fields: []model.Field{}}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.Version, &f.CreatedAt, &f.UpdatedAt)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_forms.scan", err)
				return
			}
			index[f.ID] = len(forms)
			forms = append(forms, f)
		}
		rows.Close()

		fieldRows, err := app.QueryContext(r.Context(), `
			SELECT form_id, id, label, type, name, required, options, validation, ord
			FROM form_field
			ORDER BY rowid`)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_forms.fields", err)
			return
		}
		defer fieldRows.Close()

		for fieldRows.Next() {
			var formID string
			field, err := scanFieldWithFormID(fieldRows, &formID)
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_forms.fields.scan", err)
				return
			}
			if i, ok := index[formID]; ok {
				forms[i].Fields = append(forms[i].Fields, field)
			}
		}

		render.JSON(w, r, forms)
	}
}

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := loadForm(r.Context(), app.DB, chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_form", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "get_form", "Form", chi.URLParam(r, "id"))
			return
		}

		render.JSON(w, r, form)
	}
}

type formUpdate struct {
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	Fields        *[]model.Field `json:"fields"`
	RequireFields bool           `json:"requireFields"`
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		payload := formUpdate{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogBadRequest(w, r, "request.parse_body", "invalid request body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, err := loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.load", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "update_form", "Form", formID)
			return
		}

		if payload.RequireFields && len(form.Fields) == 0 {
			httpx.LogBadRequest(w, r, "update_form.require_fields", "Form must have at least one field")
			return
		}

		if payload.Title != nil {
			form.Title = *payload.Title
		}
		if payload.Description != nil {
			form.Description = *payload.Description
		}

		fieldsChanged := payload.Fields != nil
		if fieldsChanged {
			if msg := checkFields(*payload.Fields); msg != "" {
				httpx.LogBadRequest(w, r, "update_form.fields", msg)
				return
			}
			form.Fields = *payload.Fields
			if err := replaceFields(r.Context(), tx, formID, form.Fields); err != nil {
				httpx.LogInternalError(w, r, "db.update_form.fields", err)
				return
			}
			form.Version++
		}

		form.UpdatedAt = time.Now().UTC()
		_, err = tx.ExecContext(r.Context(), `
			UPDATE form
			SET title = ?, description = ?, version = ?, updated_at = ?
			WHERE id = ?`,
			form.Title, form.Description, form.Version, form.UpdatedAt, formID,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_form.commit", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		res, err := app.ExecContext(r.Context(), `DELETE FROM form WHERE id = ?`, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "delete_form", "Form", formID)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Form deleted successfully",
		})
	}
}

type fieldPayload struct {
	Label      string            `json:"label"`
	Type       model.FieldType   `json:"type"`
	Name       string            `json:"name"`
	Required   bool              `json:"required"`
	Options    []model.Option    `json:"options"`
	Validation *model.Validation `json:"validation"`
	Order      *int              `json:"order"`
}

func AddField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		payload := fieldPayload{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogBadRequest(w, r, "request.parse_body", "invalid request body")
			return
		}
		if payload.Label == "" || payload.Type == "" || payload.Name == "" {
			httpx.LogBadRequest(w, r, "add_field.required", "Label, type, and name are required")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, err := loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.add_field.load", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "add_field", "Form", formID)
			return
		}
		if form.FieldByName(payload.Name) != nil {
			httpx.LogBadRequest(w, r, "add_field.duplicate", "Field name must be unique within the form")
			return
		}

		field := model.Field{
			Label:      payload.Label,
			Type:       payload.Type,
			Name:       payload.Name,
			Required:   payload.Required,
			Options:    payload.Options,
			Validation: payload.Validation,
			Order:      len(form.Fields),
		}
		if payload.Order != nil {
			field.Order = *payload.Order
		}
		if msg := checkField(&field); msg != "" {
			httpx.LogBadRequest(w, r, "add_field.check", msg)
			return
		}

		if err := insertField(r.Context(), tx, formID, &field); err != nil {
			httpx.LogInternalError(w, r, "db.add_field", err)
			return
		}
		if err := bumpVersion(r.Context(), tx, formID); err != nil {
			httpx.LogInternalError(w, r, "db.add_field.version", err)
			return
		}

		form, err = loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.add_field.reload", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.add_field.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, form)
	}
}

type fieldUpdate struct {
	Label      *string           `json:"label"`
	Type       *model.FieldType  `json:"type"`
	Name       *string           `json:"name"`
	Required   *bool             `json:"required"`
	Options    *[]model.Option   `json:"options"`
	Validation *model.Validation `json:"validation"`
	Order      *int              `json:"order"`
}

func UpdateField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")
		fieldID := chi.URLParam(r, "fieldId")

		payload := fieldUpdate{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogBadRequest(w, r, "request.parse_body", "invalid request body")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, err := loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_field.load", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "update_field", "Form", formID)
			return
		}

		var field *model.Field
		for i := range form.Fields {
			if form.Fields[i].ID == fieldID {
				field = &form.Fields[i]
				break
			}
		}
		if field == nil {
			httpx.LogNotFound(w, r, "update_field", "Field", fieldID)
			return
		}

		if payload.Name != nil && *payload.Name != field.Name {
			if other := form.FieldByName(*payload.Name); other != nil && other.ID != fieldID {
				httpx.LogBadRequest(w, r, "update_field.duplicate", "Field name must be unique within the form")
				return
			}
		}

		if payload.Label != nil {
			field.Label = *payload.Label
		}
		if payload.Type != nil {
			field.Type = *payload.Type
		}
		if payload.Name != nil {
			field.Name = *payload.Name
		}
		if payload.Required != nil {
			field.Required = *payload.Required
		}
		if payload.Options != nil {
			field.Options = *payload.Options
		}
		if payload.Validation != nil {
			field.Validation = payload.Validation
		}
		if payload.Order != nil {
			field.Order = *payload.Order
		}

		if msg := checkField(field); msg != "" {
			httpx.LogBadRequest(w, r, "update_field.check", msg)
			return
		}

		if err := updateField(r.Context(), tx, formID, field); err != nil {
			httpx.LogInternalError(w, r, "db.update_field", err)
			return
		}
		if err := bumpVersion(r.Context(), tx, formID); err != nil {
			httpx.LogInternalError(w, r, "db.update_field.version", err)
			return
		}

		form, err = loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_field.reload", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_field.commit", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteField(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")
		fieldID := chi.URLParam(r, "fieldId")

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, err := loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_field.load", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "delete_field", "Form", formID)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM form_field
			WHERE form_id = ? AND id = ?`,
			formID, fieldID,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_field", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_field.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, r, "delete_field", "Field", fieldID)
			return
		}

		if err := bumpVersion(r.Context(), tx, formID); err != nil {
			httpx.LogInternalError(w, r, "db.delete_field.version", err)
			return
		}

		form, err = loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_field.reload", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.delete_field.commit", err)
			return
		}

		render.JSON(w, r, form)
	}
}

type fieldOrder struct {
	FieldID string `json:"fieldId"`
	Order   int    `json:"order"`
}

// ReorderFields applies (fieldId, order) pairs exactly as sent: unknown
// field ids are skipped and nothing enforces unique or contiguous order
// values. Duplicate orders keep their stored relative position on read.
func ReorderFields(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		payload := struct {
			FieldOrders []fieldOrder `json:"fieldOrders"`
		}{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogBadRequest(w, r, "request.parse_body", "invalid request body")
			return
		}
		if payload.FieldOrders == nil {
			httpx.LogBadRequest(w, r, "reorder_fields.orders", "fieldOrders must be an array")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, err := loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.reorder_fields.load", err)
			return
		}
		if form == nil {
			httpx.LogNotFound(w, r, "reorder_fields", "Form", formID)
			return
		}

		for _, fo := range payload.FieldOrders {
			_, err = tx.ExecContext(r.Context(), `
				UPDATE form_field
				SET ord = ?
				WHERE form_id = ? AND id = ?`,
				fo.Order, formID, fo.FieldID,
			)
			if err != nil {
				httpx.LogInternalError(w, r, "db.reorder_fields", err)
				return
			}
		}

		if err := bumpVersion(r.Context(), tx, formID); err != nil {
			httpx.LogInternalError(w, r, "db.reorder_fields.version", err)
			return
		}

		form, err = loadForm(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, r, "db.reorder_fields.reload", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.reorder_fields.commit", err)
			return
		}

		render.JSON(w, r, form)
	}
}
