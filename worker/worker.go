// Package worker implements the dispatch loop which pulls Tasks from a
// Queue and executes them under bounded concurrency. Task failures are
// contained at the execution-unit boundary and reported through lease
// fault declaration; only machinery failures surface in the loop, where
// they are logged and retried after a backoff.
package worker

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-flo/flo"
	errors "github.com/go-flo/flo/errors"
	"github.com/go-flo/flo/logging"
	uuid "github.com/gofrs/uuid"
	"golang.org/x/sync/semaphore"
)

// A TaskHandler executes the body of one Task. Returning an error faults
// the task's lease, deferring redelivery to the queue's retry policy.
type TaskHandler func(ctx context.Context, ectx *ExecutionContext, task *Task) error

// WorkerOptions are options for a Worker, configuring its concurrency
// bound, pacing and lease maintenance
type WorkerOptions struct {
	MaxConcurrentTasks int           // upper bound on tasks executing simultaneously. Defaults to runtime.NumCPU().
	PollBackoff        time.Duration // sleep after finding the queue empty or all slots taken. Defaults to 500ms.
	DispatchStagger    time.Duration // sleep after each successful dispatch. Defaults to 200ms.
	ErrorBackoff       time.Duration // sleep after a dequeue/dispatch machinery error. Defaults to 1s.
	LeaseRenewInterval time.Duration // interval between lease heartbeats for in-flight tasks. Defaults to 10s.
	LeaseRenewExtend   time.Duration // visibility extension requested by each heartbeat. Defaults to 3x the interval.
	LogLevel           int           // minimum logging.Level emitted. Defaults to InfoLevel.
}

func ensureDefaultWorkerOptionsValues(opts *WorkerOptions) {
	if opts.MaxConcurrentTasks == 0 {
		opts.MaxConcurrentTasks = runtime.NumCPU()
	}
	if opts.MaxConcurrentTasks < 0 {
		log.Fatal("WorkerOptions.MaxConcurrentTasks must be greater than 0")
	}
	if opts.PollBackoff == 0 {
		opts.PollBackoff = 500 * time.Millisecond
	}
	if opts.DispatchStagger == 0 {
		opts.DispatchStagger = 200 * time.Millisecond
	}
	if opts.ErrorBackoff == 0 {
		opts.ErrorBackoff = time.Second
	}
	if opts.LeaseRenewInterval == 0 {
		opts.LeaseRenewInterval = 10 * time.Second
	}
	if opts.LeaseRenewExtend == 0 {
		opts.LeaseRenewExtend = 3 * opts.LeaseRenewInterval
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logging.InfoLevel
	}
}

// A Worker pulls Tasks from a Queue and dispatches them to registered
// TaskHandlers, at most MaxConcurrentTasks at a time
type Worker struct {
	id       string
	queue    flo.Queue
	provider ExecutionContextProvider
	handlers map[string]TaskHandler
	opts     *WorkerOptions
	slots    *semaphore.Weighted
	inFlight int64 // current number of executing tasks, accessed atomically
	logger   *logging.Logger
}

// CreateWorker produces a Worker over the given queue and dependency
// provider
func CreateWorker(q flo.Queue, provider ExecutionContextProvider, opts *WorkerOptions) (*Worker, error) {
	if opts == nil {
		opts = &WorkerOptions{}
	}
	ensureDefaultWorkerOptionsValues(opts)
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate worker ID: %v", err)
	}
	return &Worker{
		id:       id.String(),
		queue:    q,
		provider: provider,
		handlers: make(map[string]TaskHandler),
		opts:     opts,
		slots:    semaphore.NewWeighted(int64(opts.MaxConcurrentTasks)),
		logger:   logging.CreateLogger(fmt.Sprintf("[worker %s] ", id.String()), opts.LogLevel),
	}, nil
}

// ID returns this Worker's unique identifier
func (w *Worker) ID() string {
	return w.id
}

// RegisterHandler associates a task type with its handler. Registration
// must finish before Run is called.
func (w *Worker) RegisterHandler(taskType string, handler TaskHandler) {
	w.handlers[taskType] = handler
}

// InFlight returns the number of tasks currently executing
func (w *Worker) InFlight() int64 {
	return atomic.LoadInt64(&w.inFlight)
}

// Run executes the dispatch loop until ctx is cancelled, then drains
// in-flight tasks before returning ctx's error
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Logf(logging.InfoLevel, "starting dispatch loop with %d slots", w.opts.MaxConcurrentTasks)
	for {
		if ctx.Err() != nil {
			break
		}
		if !w.slots.TryAcquire(1) {
			// all slots busy
			w.sleep(ctx, w.opts.PollBackoff)
			continue
		}
		msg, ok, err := w.queue.TryDequeue(ctx)
		if err != nil {
			w.slots.Release(1)
			if ctx.Err() != nil {
				break
			}
			w.logger.Logf(logging.ErrorLevel, "%v", errors.DispatchFaultError{Cause: err})
			w.sleep(ctx, w.opts.ErrorBackoff)
			continue
		}
		if !ok {
			w.slots.Release(1)
			w.sleep(ctx, w.opts.PollBackoff)
			continue
		}
		atomic.AddInt64(&w.inFlight, 1)
		go w.execute(ctx, msg)
		w.sleep(ctx, w.opts.DispatchStagger)
	}
	// wait for in-flight tasks to settle
	w.slots.Acquire(context.Background(), int64(w.opts.MaxConcurrentTasks))
	w.slots.Release(int64(w.opts.MaxConcurrentTasks))
	w.logger.Logf(logging.InfoLevel, "dispatch loop stopped")
	return ctx.Err()
}

// execute runs one dequeued task to settlement. It owns the message's
// lease: the lease is released on success and faulted on any failure,
// including panics, so task errors never reach the dispatch loop.
func (w *Worker) execute(ctx context.Context, msg *flo.Message) {
	defer func() {
		atomic.AddInt64(&w.inFlight, -1)
		w.slots.Release(1)
	}()
	heartbeatDone := make(chan struct{})
	defer close(heartbeatDone)
	go w.heartbeat(msg.Lease, heartbeatDone)
	err := w.runTask(ctx, msg)
	if err != nil {
		w.logger.Logf(logging.ErrorLevel, "%v", err)
		if ferr := msg.Lease.Fault(context.Background()); ferr != nil {
			w.logger.Logf(logging.WarnLevel, "failed to fault lease for message %s: %v", msg.ID, ferr)
		}
		return
	}
	if rerr := msg.Lease.Release(context.Background()); rerr != nil {
		w.logger.Logf(logging.WarnLevel, "failed to release lease for message %s: %v", msg.ID, rerr)
	}
}

func (w *Worker) runTask(ctx context.Context, msg *flo.Message) (err error) {
	task, derr := DecodeTask(msg.Body)
	if derr != nil {
		return errors.TaskFaultError{TaskID: msg.ID, Cause: derr}
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.TaskFaultError{TaskID: task.ID, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	handler, ok := w.handlers[task.Type]
	if !ok {
		return errors.TaskFaultError{TaskID: task.ID, Cause: errors.NoSuchHandlerError{Type: task.Type}}
	}
	ectx, perr := w.provider.Provide(ctx, task.Dependencies)
	if perr != nil {
		return errors.TaskFaultError{TaskID: task.ID, Cause: perr}
	}
	w.logger.Logf(logging.DebugLevel, "executing task %s (%s)", task.ID, task.Type)
	if herr := handler(ctx, ectx, task); herr != nil {
		return errors.TaskFaultError{TaskID: task.ID, Cause: herr}
	}
	return nil
}

// heartbeat renews a lease periodically until done is closed. Renewal
// failures against a settled or expired lease end the heartbeat; other
// failures are retried at the next interval.
func (w *Worker) heartbeat(lease flo.Lease, done <-chan struct{}) {
	ticker := time.NewTicker(w.opts.LeaseRenewInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := lease.Renew(context.Background(), w.opts.LeaseRenewExtend); err != nil {
				switch err.(type) {
				case errors.LeaseSettledError, errors.LeaseExpiredError:
					return
				default:
					w.logger.Logf(logging.WarnLevel, "lease renewal failed: %v", err)
				}
			}
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
