package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Timestamp is a point in time a query is evaluated at. It is either
// absolute ("2022-08-01T00:00:00Z", "2022-08-01") or an ISO 8601 duration
// relative to now ("PT0S", "P-1D", "-P1D", "PT-3H").
type Timestamp struct {
	raw      string
	absolute time.Time
	offset   time.Duration
	relative bool
}

var durationComponent = regexp.MustCompile(`(-?)\d+(?:[.,]\d+)?[YMWDHS]`)

// ParseTimestamp parses the absolute and relative forms.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("timestamp is empty")
	}

	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "-P") {
		return parseRelative(s)
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{raw: s, absolute: t.UTC()}, nil
		}
	}

	return Timestamp{}, fmt.Errorf("invalid timestamp %q: expected ISO 8601 date-time or duration", s)
}

// MustParseTimestamp is ParseTimestamp for constants and tests.
func MustParseTimestamp(s string) Timestamp {
	ts, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// NewAbsoluteTimestamp wraps t.
func NewAbsoluteTimestamp(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{raw: t.Format(time.RFC3339Nano), absolute: t}
}

// Now is the relative timestamp "PT0S".
func Now() Timestamp {
	return Timestamp{raw: "PT0S", relative: true}
}

func parseRelative(s string) (Timestamp, error) {
	normalized, err := normalizeDuration(s)
	if err != nil {
		return Timestamp{}, err
	}

	d, err := duration.Parse(normalized)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}

	offset := d.ToTimeDuration()
	if d.Negative && offset > 0 {
		offset = -offset
	}
	if offset > 0 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: relative timestamps cannot lie in the future", s)
	}

	return Timestamp{raw: s, offset: offset, relative: true}, nil
}

// normalizeDuration moves per-component signs to the front:
// "P-1DT-2H" becomes "-P1DT2H". Mixed signs are rejected.
func normalizeDuration(s string) (string, error) {
	if strings.HasPrefix(s, "-") {
		return s, nil
	}

	matches := durationComponent.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	negative := matches[0][1] == "-"
	for _, m := range matches[1:] {
		if (m[1] == "-") != negative {
			return "", fmt.Errorf("invalid timestamp %q: mixed signs in duration", s)
		}
	}

	if !negative {
		return s, nil
	}
	return "-" + strings.ReplaceAll(s, "-", ""), nil
}

// At resolves the timestamp against now.
func (t Timestamp) At(now time.Time) time.Time {
	if t.relative {
		return now.Add(t.offset).UTC()
	}
	return t.absolute
}

// IsCurrent reports whether t denotes the present, in which case the
// current state of a work package is used instead of its journals.
func (t Timestamp) IsCurrent(now time.Time) bool {
	if t.relative {
		return t.offset == 0
	}
	return !t.absolute.Before(now)
}

func (t Timestamp) IsZero() bool {
	return t.raw == ""
}

// String returns the timestamp in the form it was given.
func (t Timestamp) String() string {
	return t.raw
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.raw)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamps parses a comma separated list, the form used in query
// strings: "2022-08-01T00:00:00Z,PT0S".
func ParseTimestamps(s string) ([]Timestamp, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	timestamps := make([]Timestamp, 0, len(parts))
	for _, part := range parts {
		ts, err := ParseTimestamp(part)
		if err != nil {
			return nil, err
		}
		timestamps = append(timestamps, ts)
	}
	return timestamps, nil
}
