// Package utils contains small helpers that don't belong to a specific domain.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// PrintJSON writes v to w as tab-indented JSON.
func PrintJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ParseID parses a positive int64 path parameter.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
