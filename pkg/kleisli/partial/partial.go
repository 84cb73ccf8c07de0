// Package partial models partial functions as total functions returning an
// Optional, and composes them the way annotated composes logged steps.
package partial

import "math"

// Optional holds a value or nothing.
type Optional[T any] struct {
	valid bool
	value T
}

// Some wraps v as a valid Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{valid: true, value: v}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Valid reports whether o holds a value.
func (o Optional[T]) Valid() bool { return o.valid }

// Get returns the held value and whether it is valid.
func (o Optional[T]) Get() (T, bool) { return o.value, o.valid }

// OrElse returns the held value, or fallback when o is empty.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.valid {
		return fallback
	}
	return o.value
}

// Identity is the identity arrow: it never fails.
func Identity[T any](v T) Optional[T] {
	return Some(v)
}

// Compose runs f then g. If f has no result, g is not called.
func Compose[A, B, C any](f func(A) Optional[B], g func(B) Optional[C]) func(A) Optional[C] {
	return func(a A) Optional[C] {
		b, ok := f(a).Get()
		if !ok {
			return None[C]()
		}
		return g(b)
	}
}

// SafeRoot returns the square root of x for x >= 0.
func SafeRoot(x float64) Optional[float64] {
	if x >= 0 {
		return Some(math.Sqrt(x))
	}
	return None[float64]()
}

// SafeReciprocal returns 1/x for non-zero x.
func SafeReciprocal(x float64) Optional[float64] {
	if x != 0 {
		return Some(1 / x)
	}
	return None[float64]()
}

// SafeRootReciprocal computes sqrt(1/x) whenever it is defined.
var SafeRootReciprocal = Compose(SafeReciprocal, SafeRoot)
