// Package action provides the terminal combinators of the flo library:
// folds, reductions, searches and materializations which evaluate a Flow
// and return a value to the caller. Every combinator here compiles to a
// Collector driven by flo.WithEvaluators.
package action

import (
	"context"

	"github.com/go-flo/flo"
)

// foldCollector folds a partition's elements into a single accumulator
// state, owned exclusively by the partition.
type foldCollector[T, S any] struct {
	state  S
	folder func(S, T) (S, error)
}

// Sink returns an ingestion endpoint folding elements into the state
func (c *foldCollector[T, S]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		next, err := c.folder(c.state, item)
		if err != nil {
			return err
		}
		c.state = next
		return nil
	}), nil
}

// Result returns the accumulated state
func (c *foldCollector[T, S]) Result(ctx context.Context) (S, error) {
	return c.state, nil
}

// Fold reduces fl to a single value: each partition's state is seeded by
// state() and folded element-wise by folder; the set of partition states is
// then reduced with combiner. The same combiner serves as intra- and
// inter-partition reducer, so it must be associative over independent
// partition states — partition merge order is unspecified.
func Fold[T, S any](
	ctx context.Context,
	fl flo.Flow[T],
	state func() S,
	folder func(S, T) (S, error),
	combiner func(S, S) (S, error),
) (S, error) {
	return flo.WithEvaluators(ctx, fl,
		func(pctx *flo.PartitionContext) (flo.Collector[T, S], error) {
			return &foldCollector[T, S]{state: state(), folder: folder}, nil
		},
		func(ctx context.Context, s S) (S, error) {
			return s, nil
		},
		func(states []S) (S, error) {
			if len(states) == 0 {
				return state(), nil
			}
			acc := states[0]
			for _, s := range states[1:] {
				combined, err := combiner(acc, s)
				if err != nil {
					var zero S
					return zero, err
				}
				acc = combined
			}
			return acc, nil
		},
	)
}
