package action

import (
	"context"

	"github.com/go-flo/flo"
)

// ToSlice materializes every element of fl into a slice. Element order
// across partitions is unspecified. An empty Flow yields an empty slice
// without failing.
func ToSlice[T any](ctx context.Context, fl flo.Flow[T]) ([]T, error) {
	return Fold(ctx, fl,
		func() []T { return nil },
		func(items []T, item T) ([]T, error) { return append(items, item), nil },
		func(a, b []T) ([]T, error) { return append(a, b...), nil },
	)
}

// Iter runs fn against every element of fl for its side effects.
func Iter[T any](ctx context.Context, fl flo.Flow[T], fn func(T) error) error {
	_, err := Fold(ctx, fl,
		func() struct{} { return struct{}{} },
		func(s struct{}, item T) (struct{}, error) { return s, fn(item) },
		func(a, b struct{}) (struct{}, error) { return a, nil },
	)
	return err
}

// Count returns the number of elements fl yields.
func Count[T any](ctx context.Context, fl flo.Flow[T]) (int64, error) {
	return Fold(ctx, fl,
		func() int64 { return 0 },
		func(count int64, item T) (int64, error) { return count + 1, nil },
		func(a, b int64) (int64, error) { return a + b, nil },
	)
}

// IsEmpty returns true iff fl yields no elements.
func IsEmpty[T any](ctx context.Context, fl flo.Flow[T]) (bool, error) {
	some, err := Exists(ctx, fl, func(item T) (bool, error) { return true, nil })
	if err != nil {
		return false, err
	}
	return !some, nil
}
