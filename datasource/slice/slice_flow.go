// Package slice provides a Flow over an in-memory slice, split into
// roughly equal contiguous partitions.
package slice

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-flo/flo"
)

// Flow is an in-memory slice of elements which will be processed as a
// partitioned collection
type Flow[T any] struct {
	data          []T
	numPartitions int
}

// CreateFlow produces a Flow over data, split into numPartitions
// contiguous partitions. numPartitions below 1 defers to the runtime
// default.
func CreateFlow[T any](data []T, numPartitions int) *Flow[T] {
	return &Flow[T]{data: data, numPartitions: numPartitions}
}

// DegreeOfParallelism defers to the runtime default
func (f *Flow[T]) DegreeOfParallelism() int {
	return 0
}

// Analyze splits the slice into contiguous partitions of near-equal size
func (f *Flow[T]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	num := f.numPartitions
	if num < 1 {
		num = runtime.GOMAXPROCS(0)
	}
	if len(f.data) < num {
		num = len(f.data)
	}
	if num < 1 {
		return nil, nil
	}
	loaders := make([]flo.PartitionLoader[T], num)
	chunk := len(f.data) / num
	extra := len(f.data) % num
	start := 0
	for i := 0; i < num; i++ {
		end := start + chunk
		if i < extra {
			end++
		}
		loaders[i] = &partitionLoader[T]{data: f.data[start:end], index: i}
		start = end
	}
	return loaders, nil
}

// partitionLoader feeds one contiguous chunk of the slice into a Sink
type partitionLoader[T any] struct {
	data  []T
	index int
}

// ToString returns a string representation of this loader
func (l *partitionLoader[T]) ToString() string {
	return fmt.Sprintf("Slice loader partition %d (%d items)", l.index, len(l.data))
}

// Load feeds the chunk's elements into the sink in order
func (l *partitionLoader[T]) Load(pctx *flo.PartitionContext, sink flo.Sink[T]) error {
	for _, item := range l.data {
		if err := sink.Consume(item); err != nil {
			return err
		}
	}
	return nil
}
