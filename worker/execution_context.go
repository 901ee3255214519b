package worker

import (
	"context"
	"fmt"
)

// An ExecutionContext carries the resolved dependencies of a single Task
// execution. It is constructed fresh for each task by an
// ExecutionContextProvider and discarded when the task settles.
type ExecutionContext struct {
	resources map[string]interface{}
}

// Resource returns the named resolved dependency
func (e *ExecutionContext) Resource(name string) (interface{}, error) {
	if r, ok := e.resources[name]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("no resource named %s was resolved for this execution", name)
}

// An ExecutionContextProvider resolves a Task's declared Dependencies into
// concrete resources before the task body runs. Providers are external
// collaborators: a resolution failure faults the task rather than the
// dispatch loop.
type ExecutionContextProvider interface {
	// Provide resolves each named dependency for one task execution
	Provide(ctx context.Context, dependencies []string) (*ExecutionContext, error)
}

// StaticProvider is an ExecutionContextProvider backed by a fixed resource
// map, suitable for workers whose dependencies are known at startup
type StaticProvider struct {
	Resources map[string]interface{}
}

// Provide resolves dependencies against the fixed resource map
func (p *StaticProvider) Provide(ctx context.Context, dependencies []string) (*ExecutionContext, error) {
	resolved := make(map[string]interface{}, len(dependencies))
	for _, dep := range dependencies {
		r, ok := p.Resources[dep]
		if !ok {
			return nil, fmt.Errorf("unable to resolve dependency %s", dep)
		}
		resolved[dep] = r
	}
	return &ExecutionContext{resources: resolved}, nil
}
