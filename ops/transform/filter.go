package transform

import (
	"github.com/go-flo/flo"
)

// Filter retains only the elements of fl for which fn returns true.
func Filter[T any](fl flo.Flow[T], fn func(T) (bool, error)) flo.Flow[T] {
	return &decoratedFlow[T, T]{source: fl, wrap: func(sink flo.Sink[T]) flo.Sink[T] {
		return flo.SinkFunc[T](func(item T) error {
			keep, err := fn(item)
			if err != nil {
				return err
			}
			if !keep {
				return nil
			}
			return sink.Consume(item)
		})
	}}
}

// Peek runs fn against every element of fl as part of the per-element
// traversal, without altering the element stream. Used for
// instrumentation.
func Peek[T any](fl flo.Flow[T], fn func(T) error) flo.Flow[T] {
	return &decoratedFlow[T, T]{source: fl, wrap: func(sink flo.Sink[T]) flo.Sink[T] {
		return flo.SinkFunc[T](func(item T) error {
			if err := fn(item); err != nil {
				return err
			}
			return sink.Consume(item)
		})
	}}
}
