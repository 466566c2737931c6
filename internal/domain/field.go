package domain

import (
	"bytes"
	"encoding/json"
)

// Field is an optional extracted value. A field is either Present with a
// value or Absent; Absent means no rule matched, never an empty string.
type Field struct {
	value   string
	present bool
}

// Present wraps an extracted value.
func Present(v string) Field {
	return Field{value: v, present: true}
}

// Absent is the zero Field.
func Absent() Field {
	return Field{}
}

// Get returns the value and whether it is present.
func (f Field) Get() (string, bool) {
	return f.value, f.present
}

func (f Field) IsPresent() bool {
	return f.present
}

// OrElse returns the value, or def when absent.
func (f Field) OrElse(def string) string {
	if !f.present {
		return def
	}
	return f.value
}

func (f Field) String() string {
	if !f.present {
		return "<absent>"
	}
	return f.value
}

// MarshalJSON encodes Absent as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Absent()
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Present(v)
	return nil
}
