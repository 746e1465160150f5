package entity

// Option is an attribute that may be unset. The zero value is unset, so
// struct fields of type Option need no initialisation to be omitted.
type Option[T any] struct {
	value T
	set   bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, set: true}
}

// None returns an unset Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the held value and whether it is set.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the Option holds a value.
func (o Option[T]) IsSet() bool {
	return o.set
}

// OrElse returns the held value, or fallback when unset.
func (o Option[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}

	return fallback
}
