// Package seqs provides a Flow over a sequence of sequences, with one
// partition per inner sequence. It gives the caller exact control over
// partition boundaries, which keyed combinators use to expose
// hash-partitioned output.
package seqs

import (
	"context"
	"fmt"

	"github.com/go-flo/flo"
)

// Flow is a sequence of in-memory sequences, each processed as one
// partition
type Flow[T any] struct {
	seqs [][]T
}

// CreateFlow produces a Flow with one partition per inner slice.
func CreateFlow[T any](seqs [][]T) *Flow[T] {
	return &Flow[T]{seqs: seqs}
}

// DegreeOfParallelism defers to the runtime default
func (f *Flow[T]) DegreeOfParallelism() int {
	return 0
}

// Analyze returns one loader per inner sequence
func (f *Flow[T]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	loaders := make([]flo.PartitionLoader[T], len(f.seqs))
	for i, seq := range f.seqs {
		loaders[i] = &partitionLoader[T]{data: seq, index: i}
	}
	return loaders, nil
}

// partitionLoader feeds one inner sequence into a Sink
type partitionLoader[T any] struct {
	data  []T
	index int
}

// ToString returns a string representation of this loader
func (l *partitionLoader[T]) ToString() string {
	return fmt.Sprintf("Seq loader partition %d (%d items)", l.index, len(l.data))
}

// Load feeds the sequence's elements into the sink in order
func (l *partitionLoader[T]) Load(pctx *flo.PartitionContext, sink flo.Sink[T]) error {
	for _, item := range l.data {
		if err := sink.Consume(item); err != nil {
			return err
		}
	}
	return nil
}
