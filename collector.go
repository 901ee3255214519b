package flo

import "context"

// A Collector is the per-partition mutable aggregation contract: every
// fold-shaped combinator compiles down to one. A Collector is owned
// exclusively by the partition whose elements it ingests. Sink is called
// once per concurrently processed sub-partition; Result is called exactly
// once, after every sink for the partition has been drained, and never
// concurrently with Consume.
type Collector[T, S any] interface {
	Sink() (Sink[T], error)                  // Sink produces one ingestion endpoint for a sub-partition
	Result(ctx context.Context) (S, error)   // Result finalizes the accumulated partition state
}

// A Sink is the ingestion endpoint for one sub-partition of a Flow.
type Sink[T any] interface {
	Consume(item T) error // Consume ingests a single element
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc[T any] func(item T) error

// Consume ingests a single element by calling the underlying function.
func (f SinkFunc[T]) Consume(item T) error {
	return f(item)
}

// ErrStopPartition signals that a Sink has ingested all the elements it
// needs from its partition. Evaluation treats a partition whose load stops
// with this sentinel as fully drained rather than failed. Short-circuiting
// and quota-bounded collectors (tryFind, take) return it from Consume.
var ErrStopPartition = stopPartitionError{}

type stopPartitionError struct{}

func (e stopPartitionError) Error() string {
	return "partition ingestion stopped"
}
