package flo

// An Option holds either a single value or nothing. Combinators whose
// results may legitimately be absent (outer join sides, tryFind) use it in
// place of sentinel values.
type Option[T any] struct {
	value   T
	present bool
}

// Some returns an Option holding the given value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None returns an empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome returns true iff this Option holds a value.
func (o Option[T]) IsSome() bool {
	return o.present
}

// Get returns the held value and whether one is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// MustGet returns the held value, panicking if none is present.
func (o Option[T]) MustGet() T {
	if !o.present {
		panic("Option holds no value")
	}
	return o.value
}
