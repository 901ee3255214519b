package flo

import (
	"context"
	"time"
)

// A Message is a single queued payload together with the Lease acquired by
// dequeuing it. The dequeuing consumer owns the message exclusively until
// the lease is released, faulted or expires.
type Message struct {
	ID            string // queue-assigned message identity
	Body          []byte
	DeliveryCount int // number of times this message has been delivered, including this delivery
	Lease         Lease
}

// A Queue is a distributed message queue with at-least-once delivery.
// Dequeuing a message associates a time-boxed Lease with it: unless the
// lease is renewed, released or faulted before its visibility timeout
// elapses, the message becomes eligible for redelivery to another
// consumer. The queue itself is an external collaborator; implementations
// under queue/ adapt concrete backends to this contract.
type Queue interface {
	Enqueue(ctx context.Context, body []byte) error            // Enqueue adds a single message to the queue
	EnqueueBatch(ctx context.Context, bodies [][]byte) error   // EnqueueBatch adds multiple messages to the queue
	Dequeue(ctx context.Context, timeout time.Duration) (*Message, error) // Dequeue removes a message, waiting up to timeout for one to arrive; returns nil if none arrived
	DequeueBatch(ctx context.Context, max int) ([]*Message, error)        // DequeueBatch removes up to max immediately available messages
	TryDequeue(ctx context.Context) (*Message, bool, error)    // TryDequeue removes an immediately available message, if any
	Count(ctx context.Context) (int64, error)                  // Count returns the approximate number of visible messages
}

// LeaseState describes the lifecycle position of a Lease.
type LeaseState int32

const (
	// LeaseActive indicates the lease is held and has not yet timed out
	LeaseActive LeaseState = iota
	// LeaseReleased indicates the message was fully processed and removed
	LeaseReleased
	// LeaseFaulted indicates processing failed and the message was handed
	// back to the queue's retry/dead-letter policy
	LeaseFaulted
	// LeaseExpired indicates the visibility timeout elapsed without
	// renewal, making the message eligible for redelivery
	LeaseExpired
)

// A Lease is a time-boxed ownership claim over a dequeued Message. Long
// running consumers must Renew it before the visibility timeout elapses;
// from the queue's perspective an unrenewed lease is indistinguishable
// from consumer death, and triggers redelivery. This is the system's
// primary fault-recovery mechanism for crashed workers.
type Lease interface {
	Renew(ctx context.Context, extend time.Duration) error // Renew extends the visibility timeout ("heartbeat")
	Release(ctx context.Context) error                     // Release marks the message fully processed, removing it from the queue
	Fault(ctx context.Context) error                       // Fault signals that processing failed, deferring to the queue's retry policy
	State() LeaseState                                     // State reports the current lifecycle position
}
