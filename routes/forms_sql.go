package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dynaform/dynaform/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so form loading works
// inside and outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// loadForm fetches a form with all its fields in insertion order.
// Returns (nil, nil) when the id does not exist.
func loadForm(ctx context.Context, q querier, id string) (*model.Form, error) {
	form := model.Form{Fields: []model.Field{}}
	err := q.QueryRowContext(ctx, `
		SELECT id, title, description, version, created_at, updated_at
		FROM form
		WHERE id = ?`,
		id,
	).Scan(&form.ID, &form.Title, &form.Description, &form.Version, &form.CreatedAt, &form.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, label, type, name, required, options, validation, ord
		FROM form_field
		WHERE form_id = ?
		ORDER BY rowid`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		form.Fields = append(form.Fields, field)
	}
	return &form, rows.Err()
}

func scanField(rows *sql.Rows) (f model.Field, err error) {
	var options, validation string
	err = rows.Scan(&f.ID, &f.Label, &f.Type, &f.Name, &f.Required, &options, &validation, &f.Order)
	if err != nil {
		return
	}
	err = unmarshalFieldJSON(&f, options, validation)
	return
}

func scanFieldWithFormID(rows *sql.Rows, formID *string) (f model.Field, err error) {
	var options, validation string
	err = rows.Scan(formID, &f.ID, &f.Label, &f.Type, &f.Name, &f.Required, &options, &validation, &f.Order)
	if err != nil {
		return
	}
	err = unmarshalFieldJSON(&f, options, validation)
	return
}

func unmarshalFieldJSON(f *model.Field, options, validation string) error {
	if options != "" {
		if err := json.Unmarshal([]byte(options), &f.Options); err != nil {
			return err
		}
	}
	if validation != "" {
		return json.Unmarshal([]byte(validation), &f.Validation)
	}
	return nil
}

// insertField writes one field row, minting an id when the field has none.
func insertField(ctx context.Context, q querier, formID string, f *model.Field) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	options, validation, err := marshalFieldJSON(f)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO form_field (id, form_id, label, type, name, required, options, validation, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, formID, f.Label, f.Type, f.Name, f.Required, options, validation, f.Order,
	)
	return err
}

func updateField(ctx context.Context, q querier, formID string, f *model.Field) error {
	options, validation, err := marshalFieldJSON(f)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		UPDATE form_field
		SET label = ?, type = ?, name = ?, required = ?, options = ?, validation = ?, ord = ?
		WHERE form_id = ? AND id = ?`,
		f.Label, f.Type, f.Name, f.Required, options, validation, f.Order, formID, f.ID,
	)
	return err
}

func marshalFieldJSON(f *model.Field) (options string, validation string, err error) {
	if len(f.Options) > 0 {
		raw, err := json.Marshal(f.Options)
		if err != nil {
			return "", "", err
		}
		options = string(raw)
	}
	if f.Validation != nil {
		raw, err := json.Marshal(f.Validation)
		if err != nil {
			return "", "", err
		}
		validation = string(raw)
	}
	return options, validation, nil
}

// replaceFields drops every field of a form and rewrites the given list.
func replaceFields(ctx context.Context, q querier, formID string, fields []model.Field) error {
	_, err := q.ExecContext(ctx, `DELETE FROM form_field WHERE form_id = ?`, formID)
	if err != nil {
		return err
	}
	for i := range fields {
		if err := insertField(ctx, q, formID, &fields[i]); err != nil {
			return err
		}
	}
	return nil
}

// bumpVersion increments the form's version counter. Every field-list
// mutation on a persisted form goes through here; title or description
// edits do not.
func bumpVersion(ctx context.Context, q querier, formID string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE form
		SET version = version + 1, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), formID,
	)
	return err
}
