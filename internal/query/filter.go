package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator uses the OpenProject filter vocabulary.
type Operator string

const (
	OpContains    Operator = "~"
	OpNotContains Operator = "!~"
	OpEquals      Operator = "="
	OpNotEquals   Operator = "!"
	OpAny         Operator = "*"
	OpNone        Operator = "!*"
)

type Field string

const (
	FieldID               Field = "id"
	FieldSubject          Field = "subject"
	FieldDescription      Field = "description"
	FieldStatusID         Field = "status_id"
	FieldProjectID        Field = "project_id"
	FieldAssignedToEmail  Field = "assigned_to_email"
	FieldFileLinkOriginID Field = "file_link_origin_id"
)

type valueKind int

const (
	kindText valueKind = iota
	kindInteger
	kindFileLink
)

type fieldDef struct {
	column    string
	kind      valueKind
	operators []Operator
}

var fields = map[Field]fieldDef{
	FieldID:               {column: "id", kind: kindInteger, operators: []Operator{OpEquals, OpNotEquals}},
	FieldSubject:          {column: "subject", kind: kindText, operators: []Operator{OpContains, OpNotContains, OpEquals, OpNotEquals}},
	FieldDescription:      {column: "description", kind: kindText, operators: []Operator{OpContains, OpNotContains, OpAny, OpNone}},
	FieldStatusID:         {column: "status_id", kind: kindInteger, operators: []Operator{OpEquals, OpNotEquals}},
	FieldProjectID:        {column: "project_id", kind: kindInteger, operators: []Operator{OpEquals, OpNotEquals}},
	FieldAssignedToEmail:  {column: "assigned_to_email", kind: kindText, operators: []Operator{OpContains, OpEquals, OpNotEquals, OpAny, OpNone}},
	FieldFileLinkOriginID: {kind: kindFileLink, operators: []Operator{OpEquals, OpNotEquals}},
}

// Filter restricts query results: {"field":"description","operator":"~","values":["original"]}.
type Filter struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Values   []string `json:"values"`
}

// FilterError describes why a filter is invalid. Field is the filter's
// position-qualified name, e.g. "filters[0].operator".
type FilterError struct {
	Field   string
	Message string
}

func (e *FilterError) Error() string {
	return e.Field + " " + e.Message
}

// Validate checks the filter against the field definitions.
func (f Filter) Validate() error {
	def, ok := fields[f.Field]
	if !ok {
		return &FilterError{Field: "field", Message: fmt.Sprintf("unknown filter field %q", f.Field)}
	}

	if !def.allows(f.Operator) {
		return &FilterError{Field: "operator", Message: fmt.Sprintf("operator %q is not supported for %s", f.Operator, f.Field)}
	}

	switch f.Operator {
	case OpAny, OpNone:
		if len(f.Values) != 0 {
			return &FilterError{Field: "values", Message: fmt.Sprintf("operator %q takes no values", f.Operator)}
		}
		return nil
	case OpContains, OpNotContains:
		if len(f.Values) != 1 || strings.TrimSpace(f.Values[0]) == "" {
			return &FilterError{Field: "values", Message: fmt.Sprintf("operator %q takes exactly one non-empty value", f.Operator)}
		}
		return nil
	}

	if len(f.Values) == 0 {
		return &FilterError{Field: "values", Message: "at least one value is required"}
	}
	if def.kind == kindInteger {
		if _, err := f.intValues(); err != nil {
			return &FilterError{Field: "values", Message: err.Error()}
		}
	}
	return nil
}

func (d fieldDef) allows(op Operator) bool {
	for _, allowed := range d.operators {
		if allowed == op {
			return true
		}
	}
	return false
}

func (f Filter) intValues() ([]int64, error) {
	values := make([]int64, 0, len(f.Values))
	for _, v := range f.Values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", v)
		}
		values = append(values, n)
	}
	return values, nil
}

// ParseFilter parses the CLI form "field:operator:value1,value2".
// Operators without values may drop the trailing part: "description:*".
func ParseFilter(expr string) (Filter, error) {
	parts := strings.SplitN(expr, ":", 3)
	if len(parts) < 2 {
		return Filter{}, fmt.Errorf("invalid filter %q: expected field:operator[:values]", expr)
	}

	f := Filter{
		Field:    Field(strings.TrimSpace(parts[0])),
		Operator: Operator(strings.TrimSpace(parts[1])),
	}
	if len(parts) == 3 && parts[2] != "" {
		if f.Operator == OpContains || f.Operator == OpNotContains {
			f.Values = []string{parts[2]}
		} else {
			f.Values = strings.Split(parts[2], ",")
		}
	}

	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}
