// Package stats records statistics about Flow evaluations. A Recorder is
// attached to a context.Context before evaluation; combinators and the
// evaluation driver update it as partitions are processed. All methods are
// safe for concurrent use and safe to call on a nil Recorder.
package stats

import (
	"context"
	"sync"
	"sync/atomic"
)

type recorderKey struct{}

// NewContext returns a Context carrying the given Recorder. Evaluations
// driven with the returned Context record into it.
func NewContext(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// FromContext returns the Recorder carried by ctx, or nil if none is.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

// A Recorder accumulates counters for one or more Flow evaluations.
type Recorder struct {
	elements     int64
	partitions   int64
	lock         sync.Mutex
	perPartition map[int]int64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{perPartition: make(map[int]int64)}
}

// RecordElement counts one element consumed by the given partition.
func (r *Recorder) RecordElement(partition int) {
	if r == nil {
		return
	}
	atomic.AddInt64(&r.elements, 1)
	r.lock.Lock()
	r.perPartition[partition]++
	r.lock.Unlock()
}

// RecordPartition counts one partition drained to completion.
func (r *Recorder) RecordPartition() {
	if r == nil {
		return
	}
	atomic.AddInt64(&r.partitions, 1)
}

// ElementsConsumed returns the total number of elements consumed across
// all partitions so far.
func (r *Recorder) ElementsConsumed() int64 {
	if r == nil {
		return 0
	}
	return atomic.LoadInt64(&r.elements)
}

// PartitionElements returns the number of elements consumed by a single
// partition so far.
func (r *Recorder) PartitionElements(partition int) int64 {
	if r == nil {
		return 0
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.perPartition[partition]
}

// PartitionsCompleted returns the number of partitions drained so far.
func (r *Recorder) PartitionsCompleted() int64 {
	if r == nil {
		return 0
	}
	return atomic.LoadInt64(&r.partitions)
}
