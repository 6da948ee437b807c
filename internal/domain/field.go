package domain

import (
	"bytes"
	"encoding/json"
)

// Field is an optional request value that distinguishes an absent key from an
// explicit JSON null. The zero value is absent.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Some returns a present, non-null field.
func Some[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Null returns a present field holding an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

// Set reports whether the field carries a non-null value.
func (f Field[T]) Set() bool {
	return f.Present && !f.Null
}

// Ptr returns the value as a pointer, nil for absent or null fields.
func (f Field[T]) Ptr() *T {
	if !f.Set() {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON renders absent and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
