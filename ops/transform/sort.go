package transform

import (
	"cmp"
	"context"
	"slices"

	"github.com/go-flo/flo"
	"github.com/go-flo/flo/datasource/seqs"
)

type sortEntry[T any, K any] struct {
	key  K
	item T
}

// sortCollector retains the k least entries under a comparer, compacting
// whenever the buffer doubles so memory stays bounded by 2k.
type sortCollector[T any, K any] struct {
	k       int
	compare func(a, b K) int
	entries []sortEntry[T, K]
}

func (c *sortCollector[T, K]) compact() {
	slices.SortStableFunc(c.entries, func(a, b sortEntry[T, K]) int {
		return c.compare(a.key, b.key)
	})
	if len(c.entries) > c.k {
		c.entries = c.entries[:c.k]
	}
}

// Result returns the partition's k least entries, sorted
func (c *sortCollector[T, K]) Result(ctx context.Context) ([]sortEntry[T, K], error) {
	c.compact()
	return c.entries, nil
}

type sortFlow[T any, K any] struct {
	source  flo.Flow[T]
	key     func(T) (K, error)
	compare func(a, b K) int
	k       int
}

// DegreeOfParallelism defers to the source Flow
func (f *sortFlow[T, K]) DegreeOfParallelism() int {
	return f.source.DegreeOfParallelism()
}

// Analyze locally top-k's each partition, merges partition results, and
// exposes the globally sorted prefix as a single ordered partition
func (f *sortFlow[T, K]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	sorted, err := flo.WithEvaluators(ctx, f.source,
		func(pctx *flo.PartitionContext) (flo.Collector[T, []sortEntry[T, K]], error) {
			return &topKCollector[T, K]{
				sortCollector: sortCollector[T, K]{k: f.k, compare: f.compare},
				key:           f.key,
			}, nil
		},
		func(ctx context.Context, entries []sortEntry[T, K]) ([]sortEntry[T, K], error) {
			return entries, nil
		},
		func(results [][]sortEntry[T, K]) ([]sortEntry[T, K], error) {
			var all []sortEntry[T, K]
			for _, entries := range results {
				all = append(all, entries...)
			}
			slices.SortStableFunc(all, func(a, b sortEntry[T, K]) int {
				return f.compare(a.key, b.key)
			})
			if len(all) > f.k {
				all = all[:f.k]
			}
			return all, nil
		},
	)
	if err != nil {
		return nil, err
	}
	items := make([]T, len(sorted))
	for i, e := range sorted {
		items[i] = e.item
	}
	// a single partition preserves the merged order downstream
	return seqs.CreateFlow([][]T{items}).Analyze(ctx)
}

// topKCollector adds key extraction on top of sortCollector.
type topKCollector[T any, K any] struct {
	sortCollector[T, K]
	key func(T) (K, error)
}

// Sink returns an ingestion endpoint extracting each element's sort key
func (c *topKCollector[T, K]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		k, err := c.key(item)
		if err != nil {
			return err
		}
		c.entries = append(c.entries, sortEntry[T, K]{key: k, item: item})
		if len(c.entries) >= 2*c.k {
			c.compact()
		}
		return nil
	}), nil
}

// SortBy returns the k least elements of fl by key, ascending, as a
// single ordered partition. Each partition retains its local top-k before
// partition results are merged.
func SortBy[T any, K cmp.Ordered](fl flo.Flow[T], key func(T) (K, error), k int) flo.Flow[T] {
	return SortByUsing(fl, key, cmp.Compare[K], k)
}

// SortByDescending returns the k greatest elements of fl by key,
// descending, as a single ordered partition.
func SortByDescending[T any, K cmp.Ordered](fl flo.Flow[T], key func(T) (K, error), k int) flo.Flow[T] {
	return SortByUsing(fl, key, func(a, b K) int { return cmp.Compare(b, a) }, k)
}

// SortByUsing returns the k least elements of fl under the supplied
// comparer, sorted, stable under that comparer within each partition.
func SortByUsing[T any, K any](fl flo.Flow[T], key func(T) (K, error), compare func(a, b K) int, k int) flo.Flow[T] {
	if k < 1 {
		return seqs.CreateFlow[T](nil)
	}
	return &sortFlow[T, K]{source: fl, key: key, compare: compare, k: k}
}
