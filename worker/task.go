package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-flo/flo"
	uuid "github.com/gofrs/uuid"
)

// A Task is a serializable unit of work dequeued and executed by a Worker.
// The Type selects a registered TaskHandler, and Dependencies name
// resources the handler needs resolved into its ExecutionContext before
// the body runs.
type Task struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`                    // selects the registered TaskHandler
	ProcID       string          `json:"proc_id,omitempty"`       // groups tasks belonging to the same logical procedure
	Dependencies []string        `json:"dependencies,omitempty"`  // resource names resolved before execution
	Payload      json.RawMessage `json:"payload,omitempty"`       // handler-specific arguments
}

// CreateTask produces a Task of the given type with a fresh ID
func CreateTask(taskType string, payload json.RawMessage) (*Task, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task ID: %v", err)
	}
	return &Task{ID: id.String(), Type: taskType, Payload: payload}, nil
}

// Encode serializes this Task for transport on a Queue
func (t *Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTask deserializes a Task from its queue representation
func DecodeTask(body []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Submit encodes tasks and enqueues them as a batch
func Submit(ctx context.Context, q flo.Queue, tasks ...*Task) error {
	bodies := make([][]byte, 0, len(tasks))
	for _, t := range tasks {
		body, err := t.Encode()
		if err != nil {
			return err
		}
		bodies = append(bodies, body)
	}
	return q.EnqueueBatch(ctx, bodies)
}
