// Package patch models partial-update payloads. A Field distinguishes a key
// that was omitted from one sent as null and one sent with a value.
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is Unset, Null, or Set(value). The zero value is Unset.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Provided reports whether the key was present in the payload, null included.
func (f Field[T]) Provided() bool { return f.set }

// IsNull reports an explicit null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Value returns the value and whether one was set (false for Unset and Null).
func (f Field[T]) Value() (T, bool) {
	return f.value, f.set && !f.null
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}
