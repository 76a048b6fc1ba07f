package domain

import (
	"bytes"
	"encoding/json"
)

// Text is a loosely-typed field from the legacy system.
//
// Valid is true only when the source carried a JSON string. Absent and null
// fields leave Raw empty; any other JSON value (number, bool, object) is kept
// in Raw so error context can show what the legacy system actually sent.
type Text struct {
	String string
	Valid  bool
	Raw    json.RawMessage
}

// T returns a valid Text holding s.
func T(s string) Text {
	return Text{String: s, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		t.String = s
		t.Valid = true
		return nil
	}

	t.Raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.Valid {
		return json.Marshal(t.String)
	}
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	return []byte("null"), nil
}

// Value returns the field as it should appear in error context: the string
// when valid, the decoded JSON value for non-string input, nil when absent.
func (t Text) Value() any {
	if t.Valid {
		return t.String
	}
	if len(t.Raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(t.Raw, &v); err != nil {
		return string(t.Raw)
	}
	return v
}
