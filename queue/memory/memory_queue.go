// Package memory provides an in-process Queue with visibility-timeout
// lease semantics: dequeued messages are invisible until their lease is
// released, faulted or expires, at which point they become eligible for
// redelivery. It backs worker tests and single-process runtimes.
package memory

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-flo/flo"
	errors "github.com/go-flo/flo/errors"
)

// Conf configures an in-process Queue
type Conf struct {
	VisibilityTimeout time.Duration // how long a dequeued message stays invisible without renewal. Defaults to 30s.
	MaxDeliveries     int           // deliveries after which a faulted/expired message is dead-lettered instead of redelivered. Defaults to unlimited.
}

// Queue is an in-process message queue with at-least-once delivery
type Queue struct {
	conf       Conf
	lock       sync.Mutex
	ready      *list.List // *message, front is next to deliver
	inflight   map[string]*message
	deadLetter []*message
	nextID     int64
}

type message struct {
	id         string
	body       []byte
	deliveries int
	deadline   time.Time
	state      flo.LeaseState
	epoch      int // incremented on each delivery, so stale leases can be told apart
}

// CreateQueue produces an empty in-process Queue
func CreateQueue(conf *Conf) *Queue {
	if conf == nil {
		conf = &Conf{}
	}
	if conf.VisibilityTimeout == 0 {
		conf.VisibilityTimeout = 30 * time.Second
	}
	return &Queue{
		conf:     *conf,
		ready:    list.New(),
		inflight: make(map[string]*message),
	}
}

// Enqueue adds a single message to the queue
func (q *Queue) Enqueue(ctx context.Context, body []byte) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.enqueueLocked(body)
	return nil
}

// EnqueueBatch adds multiple messages to the queue
func (q *Queue) EnqueueBatch(ctx context.Context, bodies [][]byte) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	for _, body := range bodies {
		q.enqueueLocked(body)
	}
	return nil
}

func (q *Queue) enqueueLocked(body []byte) {
	q.nextID++
	q.ready.PushBack(&message{id: fmt.Sprintf("%d", q.nextID), body: body})
}

// Dequeue removes a message, waiting up to timeout for one to arrive.
// Returns nil if none arrived within the timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*flo.Message, error) {
	deadline := time.Now().Add(timeout)
	for {
		msg, ok, err := q.TryDequeue(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return msg, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// DequeueBatch removes up to max immediately available messages
func (q *Queue) DequeueBatch(ctx context.Context, max int) ([]*flo.Message, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.reclaimExpiredLocked()
	var msgs []*flo.Message
	for len(msgs) < max {
		msg := q.dequeueLocked()
		if msg == nil {
			break
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// TryDequeue removes an immediately available message, if any
func (q *Queue) TryDequeue(ctx context.Context) (*flo.Message, bool, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.reclaimExpiredLocked()
	msg := q.dequeueLocked()
	if msg == nil {
		return nil, false, nil
	}
	return msg, true, nil
}

// Count returns the number of visible messages
func (q *Queue) Count(ctx context.Context) (int64, error) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.reclaimExpiredLocked()
	return int64(q.ready.Len()), nil
}

// DeadLetterCount returns the number of dead-lettered messages
func (q *Queue) DeadLetterCount() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.deadLetter)
}

func (q *Queue) dequeueLocked() *flo.Message {
	front := q.ready.Front()
	if front == nil {
		return nil
	}
	q.ready.Remove(front)
	msg := front.Value.(*message)
	msg.deliveries++
	msg.deadline = time.Now().Add(q.conf.VisibilityTimeout)
	msg.state = flo.LeaseActive
	msg.epoch++
	q.inflight[msg.id] = msg
	return &flo.Message{
		ID:            msg.id,
		Body:          msg.body,
		DeliveryCount: msg.deliveries,
		Lease:         &lease{queue: q, msg: msg, epoch: msg.epoch},
	}
}

// reclaimExpiredLocked returns messages whose leases have lapsed to the
// ready list, making them eligible for redelivery
func (q *Queue) reclaimExpiredLocked() {
	now := time.Now()
	for id, msg := range q.inflight {
		if now.After(msg.deadline) {
			msg.state = flo.LeaseExpired
			delete(q.inflight, id)
			q.requeueLocked(msg)
		}
	}
}

// requeueLocked makes a message redeliverable, dead-lettering it if its
// delivery budget is spent
func (q *Queue) requeueLocked(msg *message) {
	if q.conf.MaxDeliveries > 0 && msg.deliveries >= q.conf.MaxDeliveries {
		q.deadLetter = append(q.deadLetter, msg)
		return
	}
	q.ready.PushBack(msg)
}

// lease is a time-boxed claim on one in-flight message
type lease struct {
	queue *Queue
	msg   *message
	epoch int
}

// Renew extends the lease's visibility timeout
func (l *lease) Renew(ctx context.Context, extend time.Duration) error {
	q := l.queue
	q.lock.Lock()
	defer q.lock.Unlock()
	if err := l.checkActiveLocked(); err != nil {
		return err
	}
	if extend <= 0 {
		extend = q.conf.VisibilityTimeout
	}
	l.msg.deadline = time.Now().Add(extend)
	return nil
}

// Release marks the message fully processed, removing it from the queue
func (l *lease) Release(ctx context.Context) error {
	q := l.queue
	q.lock.Lock()
	defer q.lock.Unlock()
	if err := l.checkActiveLocked(); err != nil {
		return err
	}
	l.msg.state = flo.LeaseReleased
	delete(q.inflight, l.msg.id)
	return nil
}

// Fault signals that processing failed, handing the message back to the
// queue's retry/dead-letter policy
func (l *lease) Fault(ctx context.Context) error {
	q := l.queue
	q.lock.Lock()
	defer q.lock.Unlock()
	if err := l.checkActiveLocked(); err != nil {
		return err
	}
	l.msg.state = flo.LeaseFaulted
	delete(q.inflight, l.msg.id)
	q.requeueLocked(l.msg)
	return nil
}

// State reports the lease's current lifecycle position
func (l *lease) State() flo.LeaseState {
	q := l.queue
	q.lock.Lock()
	defer q.lock.Unlock()
	if l.epoch != l.msg.epoch {
		return flo.LeaseExpired
	}
	if l.msg.state == flo.LeaseActive && time.Now().After(l.msg.deadline) {
		return flo.LeaseExpired
	}
	return l.msg.state
}

func (l *lease) checkActiveLocked() error {
	if l.epoch != l.msg.epoch {
		// the claim lapsed and the message was redelivered
		return errors.LeaseExpiredError{}
	}
	switch l.msg.state {
	case flo.LeaseReleased, flo.LeaseFaulted:
		return errors.LeaseSettledError{}
	case flo.LeaseExpired:
		return errors.LeaseExpiredError{}
	}
	if time.Now().After(l.msg.deadline) {
		l.msg.state = flo.LeaseExpired
		delete(l.queue.inflight, l.msg.id)
		l.queue.requeueLocked(l.msg)
		return errors.LeaseExpiredError{}
	}
	return nil
}
