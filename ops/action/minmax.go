package action

import (
	"cmp"
	"context"

	"github.com/go-flo/flo"
	errors "github.com/go-flo/flo/errors"
)

type keyed[T any, K any] struct {
	key  K
	item T
}

// extremeBy is the single-pass fold shared by MaxBy and MinBy: the
// accumulator carries an optional (value, key) pair updated by strict
// comparison, and the combiner prefers the already-held side on equal
// keys — stable, order-independent only up to equal-key ambiguity.
func extremeBy[T any, K cmp.Ordered](ctx context.Context, fl flo.Flow[T], key func(T) (K, error), better func(candidate, held K) bool) (T, error) {
	held, err := Fold(ctx, fl,
		func() flo.Option[keyed[T, K]] { return flo.None[keyed[T, K]]() },
		func(acc flo.Option[keyed[T, K]], item T) (flo.Option[keyed[T, K]], error) {
			k, err := key(item)
			if err != nil {
				return acc, err
			}
			if h, ok := acc.Get(); !ok || better(k, h.key) {
				return flo.Some(keyed[T, K]{key: k, item: item}), nil
			}
			return acc, nil
		},
		func(a, b flo.Option[keyed[T, K]]) (flo.Option[keyed[T, K]], error) {
			ha, ok := a.Get()
			if !ok {
				return b, nil
			}
			if hb, ok := b.Get(); ok && better(hb.key, ha.key) {
				return b, nil
			}
			return a, nil
		},
	)
	if err != nil {
		var zero T
		return zero, err
	}
	winner, ok := held.Get()
	if !ok {
		var zero T
		return zero, errors.EmptyInputError{}
	}
	return winner.item, nil
}

// MaxBy returns the element of fl with the greatest key, failing with
// EmptyInputError when fl yields no elements. On equal keys the
// already-held element wins.
func MaxBy[T any, K cmp.Ordered](ctx context.Context, fl flo.Flow[T], key func(T) (K, error)) (T, error) {
	return extremeBy(ctx, fl, key, func(candidate, held K) bool { return candidate > held })
}

// MinBy returns the element of fl with the least key, failing with
// EmptyInputError when fl yields no elements. On equal keys the
// already-held element wins.
func MinBy[T any, K cmp.Ordered](ctx context.Context, fl flo.Flow[T], key func(T) (K, error)) (T, error) {
	return extremeBy(ctx, fl, key, func(candidate, held K) bool { return candidate < held })
}

// Reduce reduces the elements of fl pairwise with reducer, failing with
// EmptyInputError when fl yields no elements. reducer must be associative:
// partition merge order is unspecified.
func Reduce[T any](ctx context.Context, fl flo.Flow[T], reducer func(T, T) (T, error)) (T, error) {
	held, err := Fold(ctx, fl,
		func() flo.Option[T] { return flo.None[T]() },
		func(acc flo.Option[T], item T) (flo.Option[T], error) {
			h, ok := acc.Get()
			if !ok {
				return flo.Some(item), nil
			}
			reduced, err := reducer(h, item)
			if err != nil {
				return acc, err
			}
			return flo.Some(reduced), nil
		},
		func(a, b flo.Option[T]) (flo.Option[T], error) {
			ha, ok := a.Get()
			if !ok {
				return b, nil
			}
			hb, ok := b.Get()
			if !ok {
				return a, nil
			}
			reduced, err := reducer(ha, hb)
			if err != nil {
				return a, err
			}
			return flo.Some(reduced), nil
		},
	)
	if err != nil {
		var zero T
		return zero, err
	}
	value, ok := held.Get()
	if !ok {
		var zero T
		return zero, errors.EmptyInputError{}
	}
	return value, nil
}
