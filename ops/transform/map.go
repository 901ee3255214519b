package transform

import (
	"github.com/go-flo/flo"
)

// Map applies fn to every element of fl, producing a Flow of the results.
// Per-partition element order is preserved.
func Map[T, U any](fl flo.Flow[T], fn func(T) (U, error)) flo.Flow[U] {
	return &decoratedFlow[T, U]{source: fl, wrap: func(sink flo.Sink[U]) flo.Sink[T] {
		return flo.SinkFunc[T](func(item T) error {
			out, err := fn(item)
			if err != nil {
				return err
			}
			return sink.Consume(out)
		})
	}}
}

// Choose applies fn to every element of fl, retaining only the results fn
// reports as present.
func Choose[T, U any](fl flo.Flow[T], fn func(T) (U, bool, error)) flo.Flow[U] {
	return &decoratedFlow[T, U]{source: fl, wrap: func(sink flo.Sink[U]) flo.Sink[T] {
		return flo.SinkFunc[T](func(item T) error {
			out, ok, err := fn(item)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			return sink.Consume(out)
		})
	}}
}

// FlatMap applies fn to every element of fl, forwarding everything fn
// emits. A single element may produce zero or more results.
func FlatMap[T, U any](fl flo.Flow[T], fn func(item T, emit func(U) error) error) flo.Flow[U] {
	return &decoratedFlow[T, U]{source: fl, wrap: func(sink flo.Sink[U]) flo.Sink[T] {
		return flo.SinkFunc[T](func(item T) error {
			return fn(item, sink.Consume)
		})
	}}
}
