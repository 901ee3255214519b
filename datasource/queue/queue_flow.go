// Package queue provides a Flow draining a distributed queue, and a sink
// writing a Flow's elements into one. Evaluating the Flow consumes
// messages: unlike other sources it is a one-shot collection, and the
// queue's at-least-once semantics apply to any elements whose leases
// expire mid-evaluation.
package queue

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-flo/flo"
)

// Conf configures a queue-backed Flow
type Conf struct {
	NumPartitions int // number of partition loaders sharing the queue. Defaults to GOMAXPROCS.
	BatchSize     int // messages per dequeue batch. Defaults to 32.
}

// Flow drains a distributed queue as a partitioned collection
type Flow[T any] struct {
	queue  flo.Queue
	decode func(body []byte) (T, error)
	conf   *Conf
}

// CreateFlow produces a Flow draining q, decoding each message body into
// an element.
func CreateFlow[T any](q flo.Queue, decode func(body []byte) (T, error), conf *Conf) *Flow[T] {
	if conf == nil {
		conf = &Conf{}
	}
	if conf.NumPartitions < 1 {
		conf.NumPartitions = runtime.GOMAXPROCS(0)
	}
	if conf.BatchSize < 1 {
		conf.BatchSize = 32
	}
	return &Flow[T]{queue: q, decode: decode, conf: conf}
}

// DegreeOfParallelism defers to the runtime default
func (f *Flow[T]) DegreeOfParallelism() int {
	return 0
}

// Analyze returns loaders which share the queue, each draining batches
// until the queue is empty
func (f *Flow[T]) Analyze(ctx context.Context) ([]flo.PartitionLoader[T], error) {
	loaders := make([]flo.PartitionLoader[T], f.conf.NumPartitions)
	for i := range loaders {
		loaders[i] = &partitionLoader[T]{flow: f, index: i}
	}
	return loaders, nil
}

// partitionLoader drains dequeue batches into a Sink
type partitionLoader[T any] struct {
	flow  *Flow[T]
	index int
}

// ToString returns a string representation of this loader
func (l *partitionLoader[T]) ToString() string {
	return fmt.Sprintf("Queue loader partition %d", l.index)
}

// Load dequeues batches until the queue yields nothing, releasing each
// message's lease once its element has been ingested
func (l *partitionLoader[T]) Load(pctx *flo.PartitionContext, sink flo.Sink[T]) error {
	ctx := pctx.Context()
	for {
		msgs, err := l.flow.queue.DequeueBatch(ctx, l.flow.conf.BatchSize)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}
		for _, msg := range msgs {
			item, err := l.flow.decode(msg.Body)
			if err != nil {
				_ = msg.Lease.Fault(ctx)
				return err
			}
			if cerr := sink.Consume(item); cerr != nil {
				// the element was ingested before the sink stopped, so
				// the message is settled either way
				if cerr == flo.ErrStopPartition {
					_ = msg.Lease.Release(ctx)
				} else {
					_ = msg.Lease.Fault(ctx)
				}
				return cerr
			}
			if rerr := msg.Lease.Release(ctx); rerr != nil {
				return rerr
			}
		}
	}
}

// Drain evaluates fl, writing every element into q. Elements are encoded
// and enqueued in batches from each partition.
func Drain[T any](ctx context.Context, fl flo.Flow[T], q flo.Queue, encode func(T) ([]byte, error), batchSize int) error {
	if batchSize < 1 {
		batchSize = 32
	}
	_, err := flo.WithEvaluators(ctx, fl,
		func(pctx *flo.PartitionContext) (flo.Collector[T, struct{}], error) {
			return &drainCollector[T]{ctx: pctx.Context(), queue: q, encode: encode, batchSize: batchSize}, nil
		},
		func(ctx context.Context, s struct{}) (struct{}, error) {
			return s, nil
		},
		func(results []struct{}) (struct{}, error) {
			return struct{}{}, nil
		},
	)
	return err
}

// drainCollector buffers encoded elements, flushing batches to the queue
// as they fill and the remainder at finalization.
type drainCollector[T any] struct {
	ctx       context.Context
	queue     flo.Queue
	encode    func(T) ([]byte, error)
	batchSize int
	pending   [][]byte
}

// Sink returns an ingestion endpoint buffering encoded elements
func (c *drainCollector[T]) Sink() (flo.Sink[T], error) {
	return flo.SinkFunc[T](func(item T) error {
		body, err := c.encode(item)
		if err != nil {
			return err
		}
		c.pending = append(c.pending, body)
		if len(c.pending) >= c.batchSize {
			return c.flush()
		}
		return nil
	}), nil
}

// Result flushes any remaining buffered elements
func (c *drainCollector[T]) Result(ctx context.Context) (struct{}, error) {
	return struct{}{}, c.flush()
}

func (c *drainCollector[T]) flush() error {
	if len(c.pending) == 0 {
		return nil
	}
	err := c.queue.EnqueueBatch(c.ctx, c.pending)
	c.pending = nil
	return err
}
