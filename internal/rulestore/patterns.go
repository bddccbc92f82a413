package rulestore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// stringArray scans a JSONB array column (moderation_rules.patterns)
// into a []string. Patterns are stored as JSONB rather than a native
// Postgres text[] so the column round-trips through database/sql's
// generic driver.Value without a vendor-specific array type.
type stringArray []string

func (a *stringArray) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("stringArray: unsupported scan source %T", src)
	}
	if len(raw) == 0 {
		*a = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("stringArray: %w", err)
	}
	*a = out
	return nil
}

func (a stringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, fmt.Errorf("stringArray: %w", err)
	}
	return string(b), nil
}

// pq marshals a []string into the driver value CreateRule binds for
// the patterns column.
func pq(patterns []string) stringArray {
	return stringArray(patterns)
}

// pqOptional returns nil (leaving the column untouched via COALESCE)
// when patterns is nil, or the marshaled array otherwise.
func pqOptional(patterns *[]string) any {
	if patterns == nil {
		return nil
	}
	return pq(*patterns)
}
