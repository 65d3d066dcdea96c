package model

import (
	"regexp"
	"sort"
	"time"
)

// FieldType is the closed set of input kinds a form may declare.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeNumber   FieldType = "number"
	TypeEmail    FieldType = "email"
	TypeDate     FieldType = "date"
	TypeCheckbox FieldType = "checkbox"
	TypeRadio    FieldType = "radio"
	TypeSelect   FieldType = "select"
	TypeFile     FieldType = "file"
)

func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeEmail, TypeDate,
		TypeCheckbox, TypeRadio, TypeSelect, TypeFile:
		return true
	}
	return false
}

// HasOptions reports whether fields of this type carry an options list.
func (t FieldType) HasOptions() bool {
	switch t {
	case TypeCheckbox, TypeRadio, TypeSelect:
		return true
	}
	return false
}

// Simple reports whether this type is allowed for a nested field.
// Nested fields never carry options of their own.
func (t FieldType) Simple() bool {
	switch t {
	case TypeText, TypeTextarea, TypeNumber, TypeEmail, TypeDate:
		return true
	}
	return false
}

// Validation is the per-type rule bag. Which keys apply depends on the
// field type: min/max for number, minLength/maxLength/pattern for
// text/textarea, allowedTypes/maxSize for file.
type Validation struct {
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MinLength    *int     `json:"minLength,omitempty"`
	MaxLength    *int     `json:"maxLength,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	MaxSize      *int64   `json:"maxSize,omitempty"`
}

// NestedField is a simple field revealed when its parent option is selected.
// Its answer lives under the synthesized key
// {parentField}_{optionValue}_{name}.
type NestedField struct {
	Label      string      `json:"label"`
	Type       FieldType   `json:"type"`
	Name       string      `json:"name"`
	Required   bool        `json:"required"`
	Validation *Validation `json:"validation,omitempty"`
}

type Option struct {
	Label        string        `json:"label"`
	Value        string        `json:"value"`
	NestedFields []NestedField `json:"nestedFields,omitempty"`
}

type Field struct {
	ID         string      `json:"_id,omitempty"`
	Label      string      `json:"label"`
	Type       FieldType   `json:"type"`
	Name       string      `json:"name"`
	Required   bool        `json:"required"`
	Options    []Option    `json:"options,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
	Order      int         `json:"order"`
}

type Form struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Fields      []Field   `json:"fields"`
	Version     int       `json:"version,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

var reFieldName = regexp.MustCompile(`^[a-z0-9_]+$`)

func ValidFieldName(name string) bool {
	return reFieldName.MatchString(name)
}

// UniqueFieldNames reports whether all field names are pairwise distinct.
func (f *Form) UniqueFieldNames() bool {
	seen := make(map[string]bool, len(f.Fields))
	for _, field := range f.Fields {
		if seen[field.Name] {
			return false
		}
		seen[field.Name] = true
	}
	return true
}

// FieldByName returns the field with the given name, or nil.
func (f *Form) FieldByName(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

// SortFields orders fields by their order value. The sort is stable so
// duplicate order values keep their stored relative position.
func (f *Form) SortFields() {
	sort.SliceStable(f.Fields, func(i, j int) bool {
		return f.Fields[i].Order < f.Fields[j].Order
	})
}

// FormSummary is the trimmed shape of a form on the public listing.
type FormSummary struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FormSnapshot is the display-relevant copy of a form frozen into each
// submission. Validation rules are deliberately not part of it.
type FormSnapshot struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Fields      []SnapshotField `json:"fields"`
}

type SnapshotField struct {
	Label    string           `json:"label"`
	Type     FieldType        `json:"type"`
	Name     string           `json:"name"`
	Required bool             `json:"required"`
	Options  []SnapshotOption `json:"options,omitempty"`
}

type SnapshotOption struct {
	Label        string                `json:"label"`
	Value        string                `json:"value"`
	NestedFields []SnapshotNestedField `json:"nestedFields,omitempty"`
}

type SnapshotNestedField struct {
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Name     string    `json:"name"`
	Required bool      `json:"required"`
}

// Snapshot copies the structural shape of the form as it is right now.
// Later edits to the live form never reach the returned value.
func (f *Form) Snapshot() FormSnapshot {
	snap := FormSnapshot{
		Title:       f.Title,
		Description: f.Description,
		Fields:      make([]SnapshotField, len(f.Fields)),
	}
	for i, field := range f.Fields {
		sf := SnapshotField{
			Label:    field.Label,
			Type:     field.Type,
			Name:     field.Name,
			Required: field.Required,
		}
		for _, opt := range field.Options {
			so := SnapshotOption{Label: opt.Label, Value: opt.Value}
			for _, nested := range opt.NestedFields {
				so.NestedFields = append(so.NestedFields, SnapshotNestedField{
					Label:    nested.Label,
					Type:     nested.Type,
					Name:     nested.Name,
					Required: nested.Required,
				})
			}
			sf.Options = append(sf.Options, so)
		}
		snap.Fields[i] = sf
	}
	return snap
}

type Submission struct {
	ID           string         `json:"_id"`
	FormID       string         `json:"formId"`
	FormVersion  int            `json:"formVersion"`
	FormSnapshot FormSnapshot   `json:"formSnapshot"`
	Answers      map[string]any `json:"answers"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
}
