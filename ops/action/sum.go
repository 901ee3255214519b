package action

import (
	"context"

	"github.com/go-flo/flo"
	errors "github.com/go-flo/flo/errors"
)

// Number is the capability bound for summable element types.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum returns the sum of fl's elements, or zero when fl is empty.
func Sum[T Number](ctx context.Context, fl flo.Flow[T]) (T, error) {
	return SumBy(ctx, fl, func(item T) (T, error) { return item, nil })
}

// SumBy returns the sum of proj over fl's elements, or zero when fl is
// empty.
func SumBy[T any, N Number](ctx context.Context, fl flo.Flow[T], proj func(T) (N, error)) (N, error) {
	return Fold(ctx, fl,
		func() N { return 0 },
		func(sum N, item T) (N, error) {
			n, err := proj(item)
			if err != nil {
				return sum, err
			}
			return sum + n, nil
		},
		func(a, b N) (N, error) { return a + b, nil },
	)
}

type meanState struct {
	sum   float64
	count int64
}

// Average returns the arithmetic mean of fl's elements, failing with
// EmptyInputError when fl yields no elements.
func Average[T Number](ctx context.Context, fl flo.Flow[T]) (float64, error) {
	return AverageBy(ctx, fl, func(item T) (float64, error) { return float64(item), nil })
}

// AverageBy returns the arithmetic mean of proj over fl's elements,
// failing with EmptyInputError when fl yields no elements. Each partition
// accumulates a (sum, count) pair; division is deferred to the final
// combine step.
func AverageBy[T any](ctx context.Context, fl flo.Flow[T], proj func(T) (float64, error)) (float64, error) {
	state, err := Fold(ctx, fl,
		func() meanState { return meanState{} },
		func(s meanState, item T) (meanState, error) {
			v, err := proj(item)
			if err != nil {
				return s, err
			}
			return meanState{sum: s.sum + v, count: s.count + 1}, nil
		},
		func(a, b meanState) (meanState, error) {
			return meanState{sum: a.sum + b.sum, count: a.count + b.count}, nil
		},
	)
	if err != nil {
		return 0, err
	}
	if state.count == 0 {
		return 0, errors.EmptyInputError{}
	}
	return state.sum / float64(state.count), nil
}
