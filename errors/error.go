package errors

import (
	"fmt"
)

// EmptyInputError occurs when a terminal reduction (Reduce, MaxBy, MinBy,
// Average) is evaluated over a Flow yielding zero elements
type EmptyInputError struct{}

// Error returns a textual representation of this EmptyInputError
func (e EmptyInputError) Error() string {
	return "Flow contains no elements"
}

// NotFoundError occurs when Find or Pick is evaluated and no element
// satisfies the predicate or chooser
type NotFoundError struct{}

// Error returns a textual representation of this NotFoundError
func (e NotFoundError) Error() string {
	return "No element satisfies the predicate"
}

// InvalidArgumentError occurs when a combinator is given an argument
// violating its contract, e.g. a degree of parallelism below 1
type InvalidArgumentError struct {
	Name   string
	Reason string
}

// Error returns a textual representation of this InvalidArgumentError
func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("Invalid argument %s: %s", e.Name, e.Reason)
}

// TaskFaultError occurs when a dispatched task's body fails during
// execution. It is caught at the execution-unit boundary and reported via
// lease fault declaration, never propagated into the dispatch loop
type TaskFaultError struct {
	TaskID string
	Cause  error
}

// Error returns a textual representation of this TaskFaultError
func (e TaskFaultError) Error() string {
	return fmt.Sprintf("Task %s faulted: %v", e.TaskID, e.Cause)
}

// Unwrap returns the underlying cause of this TaskFaultError
func (e TaskFaultError) Unwrap() error {
	return e.Cause
}

// DispatchFaultError occurs when the dequeue/dispatch machinery itself
// fails (e.g. the queue is unreachable). It is caught at the loop boundary,
// logged, and followed by a backoff
type DispatchFaultError struct {
	Cause error
}

// Error returns a textual representation of this DispatchFaultError
func (e DispatchFaultError) Error() string {
	return fmt.Sprintf("Dispatch fault: %v", e.Cause)
}

// Unwrap returns the underlying cause of this DispatchFaultError
func (e DispatchFaultError) Unwrap() error {
	return e.Cause
}

// LeaseExpiredError occurs when a lease operation is attempted after the
// lease's visibility timeout has elapsed without renewal
type LeaseExpiredError struct{}

// Error returns a textual representation of this LeaseExpiredError
func (e LeaseExpiredError) Error() string {
	return "Lease has expired"
}

// LeaseSettledError occurs when a lease operation is attempted after the
// lease has already been released or faulted
type LeaseSettledError struct{}

// Error returns a textual representation of this LeaseSettledError
func (e LeaseSettledError) Error() string {
	return "Lease has already been released or faulted"
}

// NoSuchHandlerError occurs when a dequeued task names a type no handler
// has been registered for
type NoSuchHandlerError struct{ Type string }

// Error returns a textual representation of this NoSuchHandlerError
func (e NoSuchHandlerError) Error() string {
	return fmt.Sprintf("No handler registered for task type %s", e.Type)
}
