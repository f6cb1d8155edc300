// Package repository implements per-entity persistence over the embedded
// sqlite store. Timestamps are stored as RFC 3339 text and structured
// sub-fields (slots, filter stacks, stickers, placements) as JSON blobs.
package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(raw), nil
}

func unmarshalJSON[T any](raw string, fallback T) T {
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fallback
	}
	return out
}
