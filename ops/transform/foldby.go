package transform

import (
	"context"

	"github.com/go-flo/flo"
)

// keyedCollector accumulates a per-partition mapping from keys to folded
// state. It is the execution shape every keyed combinator compiles to.
type keyedCollector[T any, K comparable, S any] struct {
	key    func(T) (K, error)
	state  func() S
	folder func(S, T) (S, error)
	table  map[K]S
}

// Sink returns an ingestion endpoint folding elements into the keyed table
func (c *keyedCollector[T, K, S]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		k, err := c.key(item)
		if err != nil {
			return err
		}
		s, ok := c.table[k]
		if !ok {
			s = c.state()
		}
		s, err = c.folder(s, item)
		if err != nil {
			return err
		}
		c.table[k] = s
		return nil
	}), nil
}

// Result returns the accumulated keyed table
func (c *keyedCollector[T, K, S]) Result(ctx context.Context) (map[K]S, error) {
	return c.table, nil
}

// foldByTable evaluates fl into a single keyed table, merging partition
// tables by key union and combining colliding values.
func foldByTable[T any, K comparable, S any](
	ctx context.Context,
	fl flo.Flow[T],
	key func(T) (K, error),
	state func() S,
	folder func(S, T) (S, error),
	combiner func(S, S) (S, error),
) (map[K]S, error) {
	return flo.WithEvaluators(ctx, fl,
		func(pctx *flo.PartitionContext) (flo.Collector[T, map[K]S], error) {
			return &keyedCollector[T, K, S]{key: key, state: state, folder: folder, table: make(map[K]S)}, nil
		},
		func(ctx context.Context, table map[K]S) (map[K]S, error) {
			return table, nil
		},
		func(tables []map[K]S) (map[K]S, error) {
			if len(tables) == 0 {
				return make(map[K]S), nil
			}
			merged := tables[0]
			for _, table := range tables[1:] {
				for k, s := range table {
					held, ok := merged[k]
					if !ok {
						merged[k] = s
						continue
					}
					combined, err := combiner(held, s)
					if err != nil {
						return nil, err
					}
					merged[k] = combined
				}
			}
			return merged, nil
		},
	)
}

// foldByFlow is the lazy Flow produced by FoldBy: evaluation of the source
// is deferred until the flow itself is analyzed.
type foldByFlow[T any, K comparable, S any] struct {
	source   flo.Flow[T]
	key      func(T) (K, error)
	state    func() S
	folder   func(S, T) (S, error)
	combiner func(S, S) (S, error)
}

// DegreeOfParallelism defers to the source Flow
func (f *foldByFlow[T, K, S]) DegreeOfParallelism() int {
	return f.source.DegreeOfParallelism()
}

// Analyze evaluates the source into a keyed table and re-partitions the
// resulting pairs by key hash
func (f *foldByFlow[T, K, S]) Analyze(ctx context.Context) ([]flo.PartitionLoader[flo.KV[K, S]], error) {
	table, err := foldByTable(ctx, f.source, f.key, f.state, f.folder, f.combiner)
	if err != nil {
		return nil, err
	}
	pairs := make([]flo.KV[K, S], 0, len(table))
	for k, s := range table {
		pairs = append(pairs, flo.KV[K, S]{Key: k, Value: s})
	}
	return keyedLoaders(ctx, pairs, effectiveDOP(f.source))
}

// FoldBy groups the elements of fl by key before folding: each partition
// accumulates a keyed mapping from key to folded state, and partition
// mappings are merged by unioning keys and combining colliding values with
// combiner. combiner must be associative over independent states — the
// same function serves as intra- and inter-partition reducer.
//
// The result is itself a Flow of key/state pairs, enabling further
// composition before materialization.
func FoldBy[T any, K comparable, S any](
	fl flo.Flow[T],
	key func(T) (K, error),
	state func() S,
	folder func(S, T) (S, error),
	combiner func(S, S) (S, error),
) flo.Flow[flo.KV[K, S]] {
	return &foldByFlow[T, K, S]{source: fl, key: key, state: state, folder: folder, combiner: combiner}
}

// CountBy counts the elements of fl sharing each key.
func CountBy[T any, K comparable](fl flo.Flow[T], key func(T) (K, error)) flo.Flow[flo.KV[K, int64]] {
	return FoldBy(fl, key,
		func() int64 { return 0 },
		func(count int64, item T) (int64, error) { return count + 1, nil },
		func(a, b int64) (int64, error) { return a + b, nil },
	)
}

// ReduceBy reduces the elements of fl sharing each key with reducer.
// Presence is tracked per key so that keys which were never seen are
// distinguished from keys whose accumulated value is the zero value;
// pairs with no accumulated value are filtered out before unwrapping.
func ReduceBy[T any, K comparable](fl flo.Flow[T], key func(T) (K, error), reducer func(T, T) (T, error)) flo.Flow[flo.KV[K, T]] {
	folded := FoldBy(fl, key,
		func() flo.Option[T] { return flo.None[T]() },
		func(acc flo.Option[T], item T) (flo.Option[T], error) {
			held, ok := acc.Get()
			if !ok {
				return flo.Some(item), nil
			}
			reduced, err := reducer(held, item)
			if err != nil {
				return flo.None[T](), err
			}
			return flo.Some(reduced), nil
		},
		func(a, b flo.Option[T]) (flo.Option[T], error) {
			held, ok := a.Get()
			if !ok {
				return b, nil
			}
			other, ok := b.Get()
			if !ok {
				return a, nil
			}
			reduced, err := reducer(held, other)
			if err != nil {
				return flo.None[T](), err
			}
			return flo.Some(reduced), nil
		},
	)
	return Choose(folded, func(kv flo.KV[K, flo.Option[T]]) (flo.KV[K, T], bool, error) {
		value, ok := kv.Value.Get()
		if !ok {
			return flo.KV[K, T]{}, false, nil
		}
		return flo.KV[K, T]{Key: kv.Key, Value: value}, true, nil
	})
}
