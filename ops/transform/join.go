package transform

import (
	"context"
	"sync"

	"github.com/go-flo/flo"
	iutil "github.com/go-flo/flo/internal/util"
)

// A JoinGroup holds the elements of both join sides sharing one key.
type JoinGroup[L, R any] struct {
	Lefts  []L
	Rights []R
}

// JoinRow is one inner-join result: a key and one matched element from
// each side.
type JoinRow[K comparable, L, R any] struct {
	Key   K
	Left  L
	Right R
}

// LeftJoinRow is one left-outer-join result; Right is empty when the left
// element had no match.
type LeftJoinRow[K comparable, L, R any] struct {
	Key   K
	Left  L
	Right flo.Option[R]
}

// RightJoinRow is one right-outer-join result; Left is empty when the
// right element had no match.
type RightJoinRow[K comparable, L, R any] struct {
	Key   K
	Left  flo.Option[L]
	Right R
}

// OuterJoinRow is one full-outer-join result; at least one side is
// present.
type OuterJoinRow[K comparable, L, R any] struct {
	Key   K
	Left  flo.Option[L]
	Right flo.Option[R]
}

// groupJoinTable accumulates, per key, the elements of both input flows,
// evaluating the two sides concurrently and merging per-partition tables
// by key union.
func groupJoinTable[K comparable, L, R any](
	ctx context.Context,
	left flo.Flow[L],
	right flo.Flow[R],
	leftKey func(L) (K, error),
	rightKey func(R) (K, error),
) (map[K]*JoinGroup[L, R], error) {
	var (
		wg         sync.WaitGroup
		leftTable  map[K][]L
		rightTable map[K][]R
	)
	asyncErrors := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		table, err := foldByTable(ctx, left, leftKey,
			func() []L { return nil },
			func(group []L, item L) ([]L, error) { return append(group, item), nil },
			func(a, b []L) ([]L, error) { return append(a, b...), nil },
		)
		if err != nil {
			asyncErrors <- err
			return
		}
		leftTable = table
	}()
	go func() {
		defer wg.Done()
		table, err := foldByTable(ctx, right, rightKey,
			func() []R { return nil },
			func(group []R, item R) ([]R, error) { return append(group, item), nil },
			func(a, b []R) ([]R, error) { return append(a, b...), nil },
		)
		if err != nil {
			asyncErrors <- err
			return
		}
		rightTable = table
	}()
	if err := iutil.WaitAndFetchError(&wg, asyncErrors); err != nil {
		return nil, err
	}
	groups := make(map[K]*JoinGroup[L, R], len(leftTable))
	for k, ls := range leftTable {
		groups[k] = &JoinGroup[L, R]{Lefts: ls}
	}
	for k, rs := range rightTable {
		g, ok := groups[k]
		if !ok {
			g = &JoinGroup[L, R]{}
			groups[k] = g
		}
		g.Rights = rs
	}
	return groups, nil
}

// groupJoinFlow is the lazy Flow produced by GroupJoinBy.
type groupJoinFlow[K comparable, L, R any] struct {
	left     flo.Flow[L]
	right    flo.Flow[R]
	leftKey  func(L) (K, error)
	rightKey func(R) (K, error)
}

// DegreeOfParallelism defers to the left input Flow
func (f *groupJoinFlow[K, L, R]) DegreeOfParallelism() int {
	return f.left.DegreeOfParallelism()
}

// Analyze evaluates both sides into a merged keyed table and
// re-partitions the groups by key hash
func (f *groupJoinFlow[K, L, R]) Analyze(ctx context.Context) ([]flo.PartitionLoader[flo.KV[K, JoinGroup[L, R]]], error) {
	groups, err := groupJoinTable(ctx, f.left, f.right, f.leftKey, f.rightKey)
	if err != nil {
		return nil, err
	}
	pairs := make([]flo.KV[K, JoinGroup[L, R]], 0, len(groups))
	for k, g := range groups {
		pairs = append(pairs, flo.KV[K, JoinGroup[L, R]]{Key: k, Value: *g})
	}
	return keyedLoaders(ctx, pairs, effectiveDOP[L](f.left))
}

// GroupJoinBy accumulates, per key, the elements of both input flows,
// producing one JoinGroup per key appearing on either side. The whole join
// family derives from it.
//
// This is a hash join with full per-key materialization: a key with large
// fan-out on both sides produces output proportional to the product of its
// group sizes, and a single outsized key group can dominate one
// partition's memory. There is no spill-to-storage or skew mitigation;
// this is a known scaling limit of the contract.
func GroupJoinBy[K comparable, L, R any](
	left flo.Flow[L],
	right flo.Flow[R],
	leftKey func(L) (K, error),
	rightKey func(R) (K, error),
) flo.Flow[flo.KV[K, JoinGroup[L, R]]] {
	return &groupJoinFlow[K, L, R]{left: left, right: right, leftKey: leftKey, rightKey: rightKey}
}

// Join matches the elements of two flows sharing a key, expanding each key
// group by cartesian product. Keys present on only one side produce no
// output.
func Join[K comparable, L, R any](
	left flo.Flow[L],
	right flo.Flow[R],
	leftKey func(L) (K, error),
	rightKey func(R) (K, error),
) flo.Flow[JoinRow[K, L, R]] {
	return FlatMap(GroupJoinBy(left, right, leftKey, rightKey), func(kv flo.KV[K, JoinGroup[L, R]], emit func(JoinRow[K, L, R]) error) error {
		for _, l := range kv.Value.Lefts {
			for _, r := range kv.Value.Rights {
				if err := emit(JoinRow[K, L, R]{Key: kv.Key, Left: l, Right: r}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LeftOuterJoin matches like Join, but every left element appears at least
// once in the output: unmatched left elements are paired with an empty
// right side.
func LeftOuterJoin[K comparable, L, R any](
	left flo.Flow[L],
	right flo.Flow[R],
	leftKey func(L) (K, error),
	rightKey func(R) (K, error),
) flo.Flow[LeftJoinRow[K, L, R]] {
	return FlatMap(GroupJoinBy(left, right, leftKey, rightKey), func(kv flo.KV[K, JoinGroup[L, R]], emit func(LeftJoinRow[K, L, R]) error) error {
		for _, l := range kv.Value.Lefts {
			if len(kv.Value.Rights) == 0 {
				if err := emit(LeftJoinRow[K, L, R]{Key: kv.Key, Left: l, Right: flo.None[R]()}); err != nil {
					return err
				}
				continue
			}
			for _, r := range kv.Value.Rights {
				if err := emit(LeftJoinRow[K, L, R]{Key: kv.Key, Left: l, Right: flo.Some(r)}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// RightOuterJoin matches like Join, but every right element appears at
// least once in the output: unmatched right elements are paired with an
// empty left side.
func RightOuterJoin[K comparable, L, R any](
	left flo.Flow[L],
	right flo.Flow[R],
	leftKey func(L) (K, error),
	rightKey func(R) (K, error),
) flo.Flow[RightJoinRow[K, L, R]] {
	return FlatMap(GroupJoinBy(left, right, leftKey, rightKey), func(kv flo.KV[K, JoinGroup[L, R]], emit func(RightJoinRow[K, L, R]) error) error {
		for _, r := range kv.Value.Rights {
			if len(kv.Value.Lefts) == 0 {
				if err := emit(RightJoinRow[K, L, R]{Key: kv.Key, Left: flo.None[L](), Right: r}); err != nil {
					return err
				}
				continue
			}
			for _, l := range kv.Value.Lefts {
				if err := emit(RightJoinRow[K, L, R]{Key: kv.Key, Left: flo.Some(l), Right: r}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// FullOuterJoin matches like Join, but every element of both sides appears
// at least once in the output.
func FullOuterJoin[K comparable, L, R any](
	left flo.Flow[L],
	right flo.Flow[R],
	leftKey func(L) (K, error),
	rightKey func(R) (K, error),
) flo.Flow[OuterJoinRow[K, L, R]] {
	return FlatMap(GroupJoinBy(left, right, leftKey, rightKey), func(kv flo.KV[K, JoinGroup[L, R]], emit func(OuterJoinRow[K, L, R]) error) error {
		switch {
		case len(kv.Value.Lefts) == 0:
			for _, r := range kv.Value.Rights {
				if err := emit(OuterJoinRow[K, L, R]{Key: kv.Key, Left: flo.None[L](), Right: flo.Some(r)}); err != nil {
					return err
				}
			}
		case len(kv.Value.Rights) == 0:
			for _, l := range kv.Value.Lefts {
				if err := emit(OuterJoinRow[K, L, R]{Key: kv.Key, Left: flo.Some(l), Right: flo.None[R]()}); err != nil {
					return err
				}
			}
		default:
			for _, l := range kv.Value.Lefts {
				for _, r := range kv.Value.Rights {
					if err := emit(OuterJoinRow[K, L, R]{Key: kv.Key, Left: flo.Some(l), Right: flo.Some(r)}); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}
