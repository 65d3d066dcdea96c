package routes

import (
	"fmt"
	"regexp"

	"github.com/dynaform/dynaform/model"
)

// checkFields validates a full field list for a schema write. Returns an
// empty string when the list is acceptable, otherwise the message for the
// 400 response.
func checkFields(fields []model.Field) string {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		if msg := checkField(&fields[i]); msg != "" {
			return msg
		}
		if seen[fields[i].Name] {
			return "Field names must be unique within a form"
		}
		seen[fields[i].Name] = true
	}
	return ""
}

// checkField validates a single field definition: closed type set, name
// shape, option placement, one-level nesting of simple kinds, and that any
// text pattern compiles so submitters never pay for a broken regexp.
func checkField(f *model.Field) string {
	if f.Label == "" || f.Type == "" || f.Name == "" {
		return "Label, type, and name are required"
	}
	if !f.Type.Valid() {
		return fmt.Sprintf("Invalid field type: %s", f.Type)
	}
	if !model.ValidFieldName(f.Name) {
		return "Field name must contain only lowercase letters, numbers and underscores"
	}
	if len(f.Options) > 0 && !f.Type.HasOptions() {
		return "Options are only allowed on checkbox, radio and select fields"
	}
	if msg := checkPattern(f.Name, f.Validation); msg != "" {
		return msg
	}

	for _, opt := range f.Options {
		if len(opt.NestedFields) == 0 {
			continue
		}
		if f.Type == model.TypeCheckbox {
			return "Nested fields are only allowed under radio and select options"
		}
		for i := range opt.NestedFields {
			if msg := checkNestedField(&opt.NestedFields[i]); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func checkNestedField(nf *model.NestedField) string {
	if nf.Label == "" || nf.Type == "" || nf.Name == "" {
		return "Label, type, and name are required"
	}
	if !nf.Type.Simple() {
		return "Nested fields must be a simple type: text, textarea, number, email or date"
	}
	if !model.ValidFieldName(nf.Name) {
		return "Field name must contain only lowercase letters, numbers and underscores"
	}
	return checkPattern(nf.Name, nf.Validation)
}

func checkPattern(name string, v *model.Validation) string {
	if v == nil || v.Pattern == "" {
		return ""
	}
	if _, err := regexp.Compile(v.Pattern); err != nil {
		return fmt.Sprintf("Invalid validation pattern for field %s", name)
	}
	return ""
}
