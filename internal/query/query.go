// Package query describes work package queries and compiles them to SQL.
//
// A query without timestamps filters the current state of work packages.
// With timestamps, every work package is reconstructed from its journals
// as of each timestamp, the filters are applied to those snapshots, and
// the union of the matches is returned in its current state.
package query

import (
	"fmt"
	"strings"
	"time"
)

type SortField string

const (
	SortByID        SortField = "id"
	SortBySubject   SortField = "subject"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Sort struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// MaxLimit caps the page size of a single query.
const MaxLimit = 1000

type Query struct {
	ProjectID  *int64      `json:"projectId"`
	Filters    []Filter    `json:"filters"`
	Timestamps []Timestamp `json:"timestamps"`
	Sort       Sort        `json:"sort"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

// Validate returns a *FilterError naming the offending part of the query.
func (q Query) Validate(maxTimestamps int) error {
	for i, f := range q.Filters {
		if err := f.Validate(); err != nil {
			fe, ok := err.(*FilterError)
			if !ok {
				return err
			}
			return &FilterError{Field: fmt.Sprintf("filters[%d].%s", i, fe.Field), Message: fe.Message}
		}
	}

	if maxTimestamps > 0 && len(q.Timestamps) > maxTimestamps {
		return &FilterError{Field: "timestamps", Message: fmt.Sprintf("at most %d timestamps are allowed", maxTimestamps)}
	}
	for i, ts := range q.Timestamps {
		if ts.IsZero() {
			return &FilterError{Field: fmt.Sprintf("timestamps[%d]", i), Message: "is empty"}
		}
	}

	switch q.Sort.Field {
	case "", SortByID, SortBySubject, SortByCreatedAt, SortByUpdatedAt:
	default:
		return &FilterError{Field: "sort.field", Message: fmt.Sprintf("cannot sort by %q", q.Sort.Field)}
	}
	switch q.Sort.Direction {
	case "", SortAsc, SortDesc:
	default:
		return &FilterError{Field: "sort.direction", Message: fmt.Sprintf("unknown direction %q", q.Sort.Direction)}
	}

	if q.Limit < 0 || q.Offset < 0 {
		return &FilterError{Field: "limit", Message: "limit and offset must be non-negative"}
	}
	if q.Limit > MaxLimit {
		return &FilterError{Field: "limit", Message: fmt.Sprintf("must be at most %d", MaxLimit)}
	}
	return nil
}

// Mode labels the query for metrics: "current", "historic" or "mixed".
func (q Query) Mode(now time.Time) string {
	historic, current := 0, 0
	for _, ts := range q.Timestamps {
		if ts.IsCurrent(now) {
			current++
		} else {
			historic++
		}
	}
	switch {
	case historic == 0:
		return "current"
	case current == 0:
		return "historic"
	default:
		return "mixed"
	}
}

// effectiveTimestamps returns the timestamps to evaluate; no timestamps
// means the present.
func (q Query) effectiveTimestamps() []Timestamp {
	if len(q.Timestamps) == 0 {
		return []Timestamp{Now()}
	}
	return q.Timestamps
}

func (s Sort) orderBy(alias string) string {
	field := s.Field
	if field == "" {
		field = SortByID
	}
	direction := "ASC"
	if s.Direction == SortDesc {
		direction = "DESC"
	}

	clause := fmt.Sprintf("%s.%s %s", alias, field, direction)
	if field != SortByID {
		clause += fmt.Sprintf(", %s.id %s", alias, direction)
	}
	return clause
}

// String renders the query in the CLI filter syntax, for logs.
func (q Query) String() string {
	parts := make([]string, 0, len(q.Filters)+1)
	for _, f := range q.Filters {
		parts = append(parts, fmt.Sprintf("%s:%s:%s", f.Field, f.Operator, strings.Join(f.Values, ",")))
	}
	if len(q.Timestamps) > 0 {
		ts := make([]string, len(q.Timestamps))
		for i, t := range q.Timestamps {
			ts[i] = t.String()
		}
		parts = append(parts, "@"+strings.Join(ts, ","))
	}
	return strings.Join(parts, " ")
}
