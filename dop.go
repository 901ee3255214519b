package flo

import (
	"context"

	errors "github.com/go-flo/flo/errors"
)

// dopFlow wraps another Flow, overriding only its reported degree of
// parallelism.
type dopFlow[T any] struct {
	source Flow[T]
	dop    int
}

// DegreeOfParallelism returns the overriding degree of parallelism
func (f *dopFlow[T]) DegreeOfParallelism() int {
	return f.dop
}

// Analyze defers to the wrapped Flow
func (f *dopFlow[T]) Analyze(ctx context.Context) ([]PartitionLoader[T], error) {
	return f.source.Analyze(ctx)
}

// WithDegreeOfParallelism returns a new Flow wrapping fl which requests at
// most n concurrently active partitions during evaluation. n below 1 is a
// contract violation.
func WithDegreeOfParallelism[T any](fl Flow[T], n int) (Flow[T], error) {
	if n < 1 {
		return nil, errors.InvalidArgumentError{Name: "degreeOfParallelism", Reason: "must be greater than or equal to 1"}
	}
	return &dopFlow[T]{source: fl, dop: n}, nil
}
