package flo

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/go-flo/flo/internal/util"
	"github.com/go-flo/flo/stats"
	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/semaphore"
)

// WithEvaluators is the single execution entry point for a Flow: every
// terminal combinator drives it. The source is partitioned via Analyze, a
// Collector produced by factory ingests each partition under the Flow's
// degree of parallelism, projection converts each partition's accumulated
// state into a partition result on the partition owner, and combiner merges
// the unordered set of partition results into the final value.
//
// combiner must be associative over independent partition states: no
// ordering across partitions is guaranteed, and results arrive in whatever
// order partitions finish. Partitions stopped by a sibling's
// PartitionContext.Cancel are treated as complete and their projected
// results participate in the combine step; cancellation of the caller's
// ctx fails the evaluation without combining.
func WithEvaluators[T, S, R any](
	ctx context.Context,
	fl Flow[T],
	factory func(pctx *PartitionContext) (Collector[T, S], error),
	projection func(ctx context.Context, state S) (R, error),
	combiner func(results []R) (R, error),
) (R, error) {
	var zero R
	loaders, err := fl.Analyze(ctx)
	if err != nil {
		return zero, err
	}
	dop := fl.DegreeOfParallelism()
	if dop <= 0 {
		dop = runtime.GOMAXPROCS(0)
	}
	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	es := &evalState{cancel: cancel}
	rec := stats.FromContext(ctx)

	limit := semaphore.NewWeighted(int64(dop))
	var (
		wg       sync.WaitGroup
		lock     sync.Mutex
		results  []R
		partErrs *multierror.Error
	)
	fail := func(err error) {
		lock.Lock()
		partErrs = multierror.Append(partErrs, err)
		partErrs.ErrorFormat = util.FormatMultiError
		lock.Unlock()
		cancel()
	}
	for i, loader := range loaders {
		wg.Add(1)
		go func(i int, loader PartitionLoader[T]) {
			defer wg.Done()
			if err := limit.Acquire(evalCtx, 1); err != nil {
				// evaluation ended before this partition started; the
				// root cause is reported elsewhere
				return
			}
			defer limit.Release(1)
			result, ok, err := runPartition(evalCtx, es, rec, i, len(loaders), dop, loader, factory, projection)
			if err != nil {
				fail(err)
				return
			}
			if ok {
				lock.Lock()
				results = append(results, result)
				lock.Unlock()
			}
		}(i, loader)
	}
	wg.Wait()
	if err := partErrs.ErrorOrNil(); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return combiner(results)
}

// runPartition drives a single partition: collector creation, ingestion,
// finalization and projection. The bool result reports whether a usable
// partition result was produced.
func runPartition[T, S, R any](
	evalCtx context.Context,
	es *evalState,
	rec *stats.Recorder,
	index, numPartitions, dop int,
	loader PartitionLoader[T],
	factory func(pctx *PartitionContext) (Collector[T, S], error),
	projection func(ctx context.Context, state S) (R, error),
) (R, bool, error) {
	var zero R
	pctx := &PartitionContext{
		ctx:   evalCtx,
		index: index,
		num:   numPartitions,
		dop:   dop,
		eval:  es,
		rec:   rec,
	}
	coll, err := factory(pctx)
	if err != nil {
		return zero, false, err
	}
	sink, err := coll.Sink()
	if err != nil {
		return zero, false, err
	}
	// the driver-owned sink enforces prompt cancellation and records
	// per-partition consumption
	guarded := SinkFunc[T](func(item T) error {
		if err := evalCtx.Err(); err != nil {
			return err
		}
		rec.RecordElement(index)
		return sink.Consume(item)
	})
	err = loader.Load(pctx, guarded)
	if err != nil && !errors.Is(err, ErrStopPartition) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if !es.shortCircuit.Load() {
				// cancelled by the caller or a failing sibling: this
				// partition produced nothing usable
				return zero, false, nil
			}
			// short-circuited by a sibling combinator: treat as drained
		} else {
			return zero, false, err
		}
	}
	rec.RecordPartition()
	state, err := coll.Result(evalCtx)
	if err != nil {
		return zero, false, err
	}
	result, err := projection(evalCtx, state)
	if err != nil {
		return zero, false, err
	}
	return result, true, nil
}
