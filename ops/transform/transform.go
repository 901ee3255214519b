// Package transform provides the non-terminal combinators of the flo
// library: element-wise decorators (Map, Filter, Choose, FlatMap, Peek)
// and keyed aggregations (FoldBy, CountBy, ReduceBy, GroupBy, the join
// family, Distinct, SortBy, Take) which evaluate their source and expose
// the result as a new Flow for further composition.
package transform

import (
	"context"
	"fmt"
	"runtime"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/go-flo/flo"
	"github.com/go-flo/flo/datasource/seqs"
)

// decoratedFlow wraps a source Flow, rewrapping the sink handed to each of
// the source's partition loaders. All map-shaped combinators reduce to it:
// they decorate elements on the way to the downstream sink without
// changing partitioning or parallelism.
type decoratedFlow[T, U any] struct {
	source flo.Flow[T]
	wrap   func(sink flo.Sink[U]) flo.Sink[T]
}

// DegreeOfParallelism defers to the source Flow
func (f *decoratedFlow[T, U]) DegreeOfParallelism() int {
	return f.source.DegreeOfParallelism()
}

// Analyze wraps each of the source's partition loaders
func (f *decoratedFlow[T, U]) Analyze(ctx context.Context) ([]flo.PartitionLoader[U], error) {
	loaders, err := f.source.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	wrapped := make([]flo.PartitionLoader[U], len(loaders))
	for i, l := range loaders {
		wrapped[i] = &decoratedLoader[T, U]{base: l, wrap: f.wrap}
	}
	return wrapped, nil
}

type decoratedLoader[T, U any] struct {
	base flo.PartitionLoader[T]
	wrap func(sink flo.Sink[U]) flo.Sink[T]
}

// ToString returns a string representation of this loader
func (l *decoratedLoader[T, U]) ToString() string {
	return l.base.ToString()
}

// Load feeds the base partition through the decorating sink
func (l *decoratedLoader[T, U]) Load(pctx *flo.PartitionContext, sink flo.Sink[U]) error {
	return l.base.Load(pctx, l.wrap(sink))
}

// effectiveDOP resolves a Flow's requested degree of parallelism against
// the runtime default.
func effectiveDOP[T any](fl flo.Flow[T]) int {
	if dop := fl.DegreeOfParallelism(); dop > 0 {
		return dop
	}
	return runtime.GOMAXPROCS(0)
}

// hashPartition spreads keyed pairs across numBuckets output partitions by
// xxhash of the key, so that downstream combinators see a deterministic
// partitioning for a given key set.
func hashPartition[K comparable, V any](pairs []flo.KV[K, V], numBuckets int) [][]flo.KV[K, V] {
	if numBuckets < 1 {
		numBuckets = 1
	}
	buckets := make([][]flo.KV[K, V], numBuckets)
	for _, p := range pairs {
		b := xxhash.Sum64String(fmt.Sprintf("%v", p.Key)) % uint64(numBuckets)
		buckets[b] = append(buckets[b], p)
	}
	return buckets
}

// keyedLoaders exposes keyed pairs, hash-partitioned, as partition loaders.
func keyedLoaders[K comparable, V any](ctx context.Context, pairs []flo.KV[K, V], dop int) ([]flo.PartitionLoader[flo.KV[K, V]], error) {
	numBuckets := dop
	if len(pairs) < numBuckets {
		numBuckets = len(pairs)
	}
	return seqs.CreateFlow(hashPartition(pairs, numBuckets)).Analyze(ctx)
}
