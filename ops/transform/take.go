package transform

import (
	"context"

	"github.com/go-flo/flo"
	"github.com/go-flo/flo/datasource/slice"
)

// takeCollector ingests up to quota elements, then stops its partition.
type takeCollector[T any] struct {
	quota int
	items []T
}

// Sink returns an ingestion endpoint which stops once the local quota is
// exhausted
func (c *takeCollector[T]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		c.items = append(c.items, item)
		if len(c.items) >= c.quota {
			return flo.ErrStopPartition
		}
		return nil
	}), nil
}

// Result returns the locally retained elements
func (c *takeCollector[T]) Result(ctx context.Context) ([]T, error) {
	return c.items, nil
}

type takeFlow[T any] struct {
	source flo.Flow[T]
	n      int
}

// DegreeOfParallelism defers to the source Flow
func (f *takeFlow[T]) DegreeOfParallelism() int {
	return f.source.DegreeOfParallelism()
}

// Analyze evaluates the source under per-partition quotas and re-exposes
// the truncated result as partitions
func (f *takeFlow[T]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	taken, err := flo.WithEvaluators(ctx, f.source,
		func(pctx *flo.PartitionContext) (flo.Collector[T, []T], error) {
			quota := (f.n + pctx.NumPartitions() - 1) / pctx.NumPartitions()
			return &takeCollector[T]{quota: quota}, nil
		},
		func(ctx context.Context, items []T) ([]T, error) {
			return items, nil
		},
		func(results [][]T) ([]T, error) {
			var all []T
			for _, items := range results {
				all = append(all, items...)
			}
			if len(all) > f.n {
				all = all[:f.n]
			}
			return all, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return slice.CreateFlow(taken, effectiveDOP(f.source)).Analyze(ctx)
}

// Take bounds the total output of fl to at most n elements. Each partition
// retains a quota of ceil(n / numPartitions) elements and stops ingesting
// once its share is exhausted; the combine step truncates the concatenated
// quotas to exactly n. Which n elements are kept is deterministic for a
// given partitioning but carries no externally meaningful order.
func Take[T any](fl flo.Flow[T], n int) flo.Flow[T] {
	if n < 1 {
		return slice.CreateFlow[T](nil, 1)
	}
	return &takeFlow[T]{source: fl, n: n}
}
