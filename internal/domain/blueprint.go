package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Blueprint is the raw JSON document describing one subject.
// The pipeline treats it as opaque apart from gate discovery.
type Blueprint json.RawMessage

// IsEmpty reports whether the blueprint carries no content.
func (b Blueprint) IsEmpty() bool {
	trimmed := bytes.TrimSpace(b)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}

// Validate checks that the blueprint is a non-empty JSON object.
func (b Blueprint) Validate() error {
	if b.IsEmpty() {
		return errors.New("blueprint is empty")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return errors.New("blueprint must be a JSON object")
	}
	return nil
}

// String returns the blueprint JSON as text, as sent to the agents.
func (b Blueprint) String() string {
	return string(b)
}

// MarshalJSON emits the raw document unchanged.
func (b Blueprint) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

// UnmarshalJSON stores a copy of the raw document.
func (b *Blueprint) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}

// Value implements the driver.Valuer interface for database serialization.
func (b Blueprint) Value() (driver.Value, error) {
	if len(b) == 0 {
		return "{}", nil
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (b *Blueprint) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*b = nil
	case []byte:
		*b = append(Blueprint(nil), v...)
	case string:
		*b = Blueprint(v)
	default:
		return errors.New("failed to scan Blueprint")
	}
	return nil
}
