package entities

// LookupStatus distinguishes a confirmed absence from a failed request.
type LookupStatus string

const (
	LookupFound    LookupStatus = "found"
	LookupNotFound LookupStatus = "not_found"
	LookupFailed   LookupStatus = "failed"
)

// Lookup is the tagged outcome of a provider call.
type Lookup[T any] struct {
	Status LookupStatus
	Value  T
	Err    error
}

// Found wraps a successful result.
func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Status: LookupFound, Value: v}
}

// NotFound reports that the provider answered with nothing.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Status: LookupNotFound}
}

// Failed reports that the provider could not be asked.
func Failed[T any](err error) Lookup[T] {
	return Lookup[T]{Status: LookupFailed, Err: err}
}

func (l Lookup[T]) IsFound() bool    { return l.Status == LookupFound }
func (l Lookup[T]) IsNotFound() bool { return l.Status == LookupNotFound }
func (l Lookup[T]) IsFailed() bool   { return l.Status == LookupFailed }

// Get returns the value and whether it was found.
func (l Lookup[T]) Get() (T, bool) {
	return l.Value, l.Status == LookupFound
}

// OrZero collapses NotFound and Failed into T's zero value.
func (l Lookup[T]) OrZero() T {
	if l.Status != LookupFound {
		var zero T
		return zero
	}
	return l.Value
}
