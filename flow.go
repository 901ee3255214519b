package flo

import "context"

// A Flow is a lazy, composable description of a distributed computation over
// a partitioned collection of elements. Constructing a Flow performs no I/O;
// a Flow owns no mutable state and may be evaluated any number of times, each
// evaluation independent of the others.
type Flow[T any] interface {
	DegreeOfParallelism() int                                // DegreeOfParallelism returns the caller-requested upper bound on concurrently active partitions, or 0 to defer to the runtime default
	Analyze(ctx context.Context) ([]PartitionLoader[T], error) // Analyze partitions the underlying collection, returning one PartitionLoader per partition
}

// A PartitionLoader feeds the elements of a single partition into a Sink.
// Loaders are assigned to partition execution contexts one-to-one, so an
// assumption is made that each loader produces a roughly equal share of the
// source. Load must stop promptly when the PartitionContext is cancelled,
// and must return the error produced by a failing Consume call unaltered.
type PartitionLoader[T any] interface {
	ToString() string                                     // for logging
	Load(pctx *PartitionContext, sink Sink[T]) error      // how to actually load data
}
