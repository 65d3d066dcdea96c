package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFieldTypeSets(t *testing.T) {
	if FieldType("banana").Valid() {
		t.Error("unknown type reported valid")
	}
	for _, ft := range []FieldType{TypeText, TypeTextarea, TypeNumber, TypeEmail,
		TypeDate, TypeCheckbox, TypeRadio, TypeSelect, TypeFile} {
		if !ft.Valid() {
			t.Errorf("%s reported invalid", ft)
		}
	}

	for _, ft := range []FieldType{TypeCheckbox, TypeRadio, TypeSelect} {
		if !ft.HasOptions() {
			t.Errorf("%s should carry options", ft)
		}
		if ft.Simple() {
			t.Errorf("%s must not be nestable", ft)
		}
	}
	if TypeFile.Simple() || TypeFile.HasOptions() {
		t.Error("file is neither simple nor optioned")
	}
	if !TypeDate.Simple() {
		t.Error("date should be nestable")
	}
}

func TestValidFieldName(t *testing.T) {
	for name, want := range map[string]bool{
		"full_name":  true,
		"age2":       true,
		"_":          true,
		"":           false,
		"Full Name":  false,
		"email-addr": false,
		"UPPER":      false,
	} {
		if got := ValidFieldName(name); got != want {
			t.Errorf("ValidFieldName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestUniqueFieldNames(t *testing.T) {
	form := Form{Fields: []Field{
		{Name: "a"}, {Name: "b"},
	}}
	if !form.UniqueFieldNames() {
		t.Error("distinct names reported duplicate")
	}

	form.Fields = append(form.Fields, Field{Name: "a"})
	if form.UniqueFieldNames() {
		t.Error("duplicate names went unnoticed")
	}
}

func TestSortFieldsStable(t *testing.T) {
	form := Form{Fields: []Field{
		{Name: "c", Order: 2},
		{Name: "a1", Order: 1},
		{Name: "a2", Order: 1},
		{Name: "b", Order: 0},
	}}
	form.SortFields()

	var names []string
	for _, f := range form.Fields {
		names = append(names, f.Name)
	}
	want := []string{"b", "a1", "a2", "c"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("sorted order mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotShape(t *testing.T) {
	min := 1.0
	form := Form{
		ID:          "f1",
		Title:       "Order",
		Description: "Order form",
		Version:     3,
		Fields: []Field{
			{
				Label: "Plan", Type: TypeSelect, Name: "plan", Required: true,
				Validation: &Validation{Pattern: "^p"},
				Options: []Option{{
					Label: "Pro", Value: "pro",
					NestedFields: []NestedField{{
						Label: "Seats", Type: TypeNumber, Name: "seats", Required: true,
						Validation: &Validation{Min: &min},
					}},
				}},
			},
			{Label: "Notes", Type: TypeTextarea, Name: "notes"},
		},
	}

	snap := form.Snapshot()

	want := FormSnapshot{
		Title:       "Order",
		Description: "Order form",
		Fields: []SnapshotField{
			{
				Label: "Plan", Type: TypeSelect, Name: "plan", Required: true,
				Options: []SnapshotOption{{
					Label: "Pro", Value: "pro",
					NestedFields: []SnapshotNestedField{
						{Label: "Seats", Type: TypeNumber, Name: "seats", Required: true},
					},
				}},
			},
			{Label: "Notes", Type: TypeTextarea, Name: "notes"},
		},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIndependentOfLaterEdits(t *testing.T) {
	form := Form{
		Title:  "Before",
		Fields: []Field{{Label: "A", Type: TypeText, Name: "a"}},
	}
	snap := form.Snapshot()

	form.Title = "After"
	form.Fields[0].Label = "Changed"
	form.Fields = append(form.Fields, Field{Label: "B", Type: TypeText, Name: "b"})

	if snap.Title != "Before" {
		t.Errorf("snapshot title changed to %q", snap.Title)
	}
	if len(snap.Fields) != 1 || snap.Fields[0].Label != "A" {
		t.Errorf("snapshot fields changed: %+v", snap.Fields)
	}
}
