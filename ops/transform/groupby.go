package transform

import (
	"github.com/go-flo/flo"
)

// GroupBy accumulates a growable sequence of elements per key per
// partition, concatenating sequences across partitions sharing a key.
//
// GroupBy is expensive in memory and time relative to FoldBy-based
// aggregates: every element of each group is materialized. Prefer FoldBy,
// CountBy or ReduceBy whenever the per-group result can be accumulated
// directly.
func GroupBy[T any, K comparable](fl flo.Flow[T], key func(T) (K, error)) flo.Flow[flo.KV[K, []T]] {
	return FoldBy(fl, key,
		func() []T { return nil },
		func(group []T, item T) ([]T, error) { return append(group, item), nil },
		func(a, b []T) ([]T, error) { return append(a, b...), nil },
	)
}

// Distinct retains one element per distinct value of fl.
func Distinct[T comparable](fl flo.Flow[T]) flo.Flow[T] {
	return DistinctBy(fl, func(item T) (T, error) { return item, nil })
}

// DistinctBy retains one representative element per distinct key of fl.
// Which representative survives is unspecified: distinctness is
// well-defined, the witness is whichever element the partition merge
// order happens to keep.
func DistinctBy[T any, K comparable](fl flo.Flow[T], key func(T) (K, error)) flo.Flow[T] {
	folded := FoldBy(fl, key,
		func() flo.Option[T] { return flo.None[T]() },
		func(acc flo.Option[T], item T) (flo.Option[T], error) {
			if acc.IsSome() {
				return acc, nil
			}
			return flo.Some(item), nil
		},
		func(a, b flo.Option[T]) (flo.Option[T], error) {
			if a.IsSome() {
				return a, nil
			}
			return b, nil
		},
	)
	return Map(folded, func(kv flo.KV[K, flo.Option[T]]) (T, error) {
		return kv.Value.MustGet(), nil
	})
}
