package mockmedia

import (
	"context"
	"sync"
)

type Invocation struct {
	Name string
	Args []string
}

// RecordingRunner captures every external command instead of executing it.
// A Handler can script stdout and errors per invocation.
type RecordingRunner struct {
	mu          sync.Mutex
	invocations []Invocation
	Handler     func(name string, args []string) (string, error)
}

func NewRecordingRunner() *RecordingRunner {
	return &RecordingRunner{}
}

func (r *RecordingRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	r.invocations = append(r.invocations, Invocation{Name: name, Args: append([]string(nil), args...)})
	handler := r.Handler
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if handler != nil {
		return handler(name, args)
	}
	return "", nil
}

func (r *RecordingRunner) Invocations() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.invocations...)
}

func (r *RecordingRunner) ByName(name string) []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []Invocation
	for _, inv := range r.invocations {
		if inv.Name == name {
			matched = append(matched, inv)
		}
	}
	return matched
}
