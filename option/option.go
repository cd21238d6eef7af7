// Package option provides Option, a two-variant container used where a
// successful response that carries nothing has to be told apart from a
// resource that was never fetched.
package option

import (
	"encoding/json"
	"fmt"
)

// Option holds either Some(value) or None.
type Option[T any] struct {
	value   T
	present bool
}

// Some wraps value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None returns the empty variant.
func None[T any]() Option[T] {
	return Option[T]{}
}

// FromPointer returns None for a nil pointer and Some(*ptr) otherwise.
func FromPointer[T any](ptr *T) Option[T] {
	if ptr == nil {
		return None[T]()
	}
	return Some(*ptr)
}

// Map applies fn to the wrapped value, keeping None as None.
func Map[T, U any](o Option[T], fn func(T) U) Option[U] {
	if !o.present {
		return None[U]()
	}
	return Some(fn(o.value))
}

// Get returns the wrapped value. Calling Get on None is a programming error and panics.
func (o Option[T]) Get() T {
	if !o.present {
		panic(fmt.Sprintf("option: Get called on None[%T]", o.value))
	}
	return o.value
}

// Value returns the wrapped value and whether it is present.
func (o Option[T]) Value() (T, bool) {
	return o.value, o.present
}

// IsEmpty reports whether o is None.
func (o Option[T]) IsEmpty() bool {
	return !o.present
}

// IsDefined reports whether o is Some.
func (o Option[T]) IsDefined() bool {
	return o.present
}

// OrElse returns the wrapped value or fallback for None.
func (o Option[T]) OrElse(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.value
}

// Inner exposes the wrapped value without its type parameter. The store
// uses it to reach into options when setting a single property.
func (o Option[T]) Inner() (any, bool) {
	if !o.present {
		return nil, false
	}
	return o.value, true
}

func (o Option[T]) String() string {
	if !o.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// MarshalJSON encodes None as null and Some(v) as v.
func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as None.
func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decoding option value : %w", err)
	}
	*o = Some(value)
	return nil
}

// MarshalYAML encodes None as null and Some(v) as v.
func (o Option[T]) MarshalYAML() (any, error) {
	if !o.present {
		return nil, nil
	}
	return o.value, nil
}
