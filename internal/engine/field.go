package engine

import (
	"bytes"
	"encoding/json"
)

/*
 * Field is a tri-state update value: unset (key absent), null (explicitly
 * cleared) or a concrete value. The zero value is unset.
 */
type Field[T any] struct {
	Value T
	Set   bool
	Null  bool
}

/* Some returns a field carrying v */
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

/* Null returns an explicitly cleared field */
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

/* Unset returns a field that was not supplied */
func Unset[T any]() Field[T] {
	return Field[T]{}
}

// IsUnset reports whether the key was absent.
func (f Field[T]) IsUnset() bool { return !f.Set }

// IsNull reports whether the key was present with an explicit null.
func (f Field[T]) IsNull() bool { return f.Set && f.Null }

// HasValue reports whether the key was present with a non-null value.
func (f Field[T]) HasValue() bool { return f.Set && !f.Null }

/* Get returns the value and whether one is present */
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.HasValue()
}

/* Ptr returns a pointer to the value, or nil for unset and null fields */
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}

/* UnmarshalJSON is only invoked when the key is present */
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
