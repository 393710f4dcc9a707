package query

import (
	"errors"
	"testing"
)

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantField string
	}{
		{"contains description", Filter{Field: FieldDescription, Operator: OpContains, Values: []string{"original"}}, ""},
		{"file link equals", Filter{Field: FieldFileLinkOriginID, Operator: OpEquals, Values: []string{"1234"}}, ""},
		{"description set", Filter{Field: FieldDescription, Operator: OpAny}, ""},
		{"status ids", Filter{Field: FieldStatusID, Operator: OpEquals, Values: []string{"1", "2"}}, ""},
		{"unknown field", Filter{Field: "priority", Operator: OpEquals, Values: []string{"1"}}, "field"},
		{"contains on file link", Filter{Field: FieldFileLinkOriginID, Operator: OpContains, Values: []string{"1"}}, "operator"},
		{"contains without value", Filter{Field: FieldSubject, Operator: OpContains}, "values"},
		{"contains with two values", Filter{Field: FieldSubject, Operator: OpContains, Values: []string{"a", "b"}}, "values"},
		{"any with values", Filter{Field: FieldDescription, Operator: OpAny, Values: []string{"x"}}, "values"},
		{"non integer status", Filter{Field: FieldStatusID, Operator: OpEquals, Values: []string{"open"}}, "values"},
		{"equals without values", Filter{Field: FieldProjectID, Operator: OpEquals}, "values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var fe *FilterError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FilterError, got %v", err)
			}
			if fe.Field != tt.wantField {
				t.Fatalf("error field = %q, want %q", fe.Field, tt.wantField)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("description:~:original: description")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Field != FieldDescription || f.Operator != OpContains || len(f.Values) != 1 || f.Values[0] != "original: description" {
		t.Fatalf("unexpected filter %+v", f)
	}

	f, err = ParseFilter("status_id:=:1,2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Values) != 2 {
		t.Fatalf("expected two values, got %v", f.Values)
	}

	if _, err := ParseFilter("description:!*"); err != nil {
		t.Fatalf("unexpected error for valueless operator: %v", err)
	}
	if _, err := ParseFilter("description"); err == nil {
		t.Fatal("expected error for missing operator")
	}
}
