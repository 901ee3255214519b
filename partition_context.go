package flo

import (
	"context"
	"sync/atomic"

	"github.com/go-flo/flo/stats"
)

// A PartitionContext carries the execution state shared between one
// partition's loader, sinks and Collector during a single Flow evaluation:
// the evaluation Context, the partition's position within the evaluation,
// and a cooperative cancellation handle shared with sibling partitions.
type PartitionContext struct {
	ctx   context.Context
	index int
	num   int
	dop   int
	eval  *evalState
	rec   *stats.Recorder
}

// evalState is the per-evaluation state shared by all PartitionContexts.
type evalState struct {
	cancel       context.CancelFunc
	shortCircuit atomic.Bool
}

// Context returns the Context governing this evaluation. Loaders must
// observe it between Consume calls so that cancellation takes effect
// promptly.
func (p *PartitionContext) Context() context.Context {
	return p.ctx
}

// Err returns a non-nil error once the evaluation Context is cancelled.
func (p *PartitionContext) Err() error {
	return p.ctx.Err()
}

// Index returns the position of this partition within the evaluation.
func (p *PartitionContext) Index() int {
	return p.index
}

// NumPartitions returns the total number of partitions in the evaluation.
func (p *PartitionContext) NumPartitions() int {
	return p.num
}

// DegreeOfParallelism returns the effective cap on concurrently active
// partitions for this evaluation.
func (p *PartitionContext) DegreeOfParallelism() int {
	return p.dop
}

// Cancel signals sibling partitions to stop consuming. It marks the
// evaluation as short-circuited: partitions stopped this way are treated
// as complete, and their projected results participate in the combine
// step. External cancellation of the caller's Context is unaffected and
// still fails the evaluation.
func (p *PartitionContext) Cancel() {
	p.eval.shortCircuit.Store(true)
	p.eval.cancel()
}

// ShortCircuited returns true once any partition has called Cancel.
func (p *PartitionContext) ShortCircuited() bool {
	return p.eval.shortCircuit.Load()
}

// Stats returns the evaluation's statistics Recorder, which may be nil.
func (p *PartitionContext) Stats() *stats.Recorder {
	return p.rec
}
