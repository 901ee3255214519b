package action

import (
	"context"

	"github.com/go-flo/flo"
	errors "github.com/go-flo/flo/errors"
)

// pickCollector searches its partition for an element the chooser accepts,
// signalling sibling partitions to stop once one is found.
type pickCollector[T, U any] struct {
	pctx    *flo.PartitionContext
	chooser func(T) (U, bool, error)
	found   flo.Option[U]
}

// Sink returns an ingestion endpoint applying the chooser to each element
func (c *pickCollector[T, U]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		out, ok, err := c.chooser(item)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c.found = flo.Some(out)
		// stop siblings, then stop this partition
		c.pctx.Cancel()
		return flo.ErrStopPartition
	}), nil
}

// Result returns the partition's find, if any
func (c *pickCollector[T, U]) Result(ctx context.Context) (flo.Option[U], error) {
	return c.found, nil
}

// TryPick applies chooser to the elements of fl until some partition
// produces an accepted result, then signals sibling partitions to stop
// consuming. Exactly one accepted result is returned if at least one
// exists, but which one is unspecified: the winner of a race among
// partitions, not the "first" in any sequence order.
func TryPick[T, U any](ctx context.Context, fl flo.Flow[T], chooser func(T) (U, bool, error)) (U, bool, error) {
	found, err := flo.WithEvaluators(ctx, fl,
		func(pctx *flo.PartitionContext) (flo.Collector[T, flo.Option[U]], error) {
			return &pickCollector[T, U]{pctx: pctx, chooser: chooser}, nil
		},
		func(ctx context.Context, found flo.Option[U]) (flo.Option[U], error) {
			return found, nil
		},
		func(results []flo.Option[U]) (flo.Option[U], error) {
			for _, r := range results {
				if r.IsSome() {
					return r, nil
				}
			}
			return flo.None[U](), nil
		},
	)
	if err != nil {
		var zero U
		return zero, false, err
	}
	value, ok := found.Get()
	return value, ok, nil
}

// TryFind returns some element of fl satisfying pred, short-circuiting
// sibling partitions as soon as any partition finds a match. Which
// satisfying element is returned is unspecified.
func TryFind[T any](ctx context.Context, fl flo.Flow[T], pred func(T) (bool, error)) (T, bool, error) {
	return TryPick(ctx, fl, func(item T) (T, bool, error) {
		ok, err := pred(item)
		return item, ok, err
	})
}

// Find returns some element of fl satisfying pred, failing with
// NotFoundError when none does.
func Find[T any](ctx context.Context, fl flo.Flow[T], pred func(T) (bool, error)) (T, error) {
	item, ok, err := TryFind(ctx, fl, pred)
	if err != nil {
		return item, err
	}
	if !ok {
		var zero T
		return zero, errors.NotFoundError{}
	}
	return item, nil
}

// Pick returns some accepted chooser result over fl, failing with
// NotFoundError when the chooser accepts no element.
func Pick[T, U any](ctx context.Context, fl flo.Flow[T], chooser func(T) (U, bool, error)) (U, error) {
	out, ok, err := TryPick(ctx, fl, chooser)
	if err != nil {
		return out, err
	}
	if !ok {
		var zero U
		return zero, errors.NotFoundError{}
	}
	return out, nil
}

// Exists returns true iff some element of fl satisfies pred,
// short-circuiting once one is found.
func Exists[T any](ctx context.Context, fl flo.Flow[T], pred func(T) (bool, error)) (bool, error) {
	_, ok, err := TryFind(ctx, fl, pred)
	return ok, err
}

// ForAll returns true iff every element of fl satisfies pred,
// short-circuiting once a counterexample is found.
func ForAll[T any](ctx context.Context, fl flo.Flow[T], pred func(T) (bool, error)) (bool, error) {
	counterexample, err := Exists(ctx, fl, func(item T) (bool, error) {
		ok, err := pred(item)
		return !ok, err
	})
	if err != nil {
		return false, err
	}
	return !counterexample, nil
}
