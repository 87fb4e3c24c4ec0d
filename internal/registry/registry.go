// Package registry holds the validated task table for a pipeline run.
// The table is write-once during setup and read-mostly afterwards, so it is
// guarded by an RWMutex and safe for concurrent reads by dispatcher workers.
package registry

import (
	"fmt"
	"sync"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Registry is a concurrency-safe table of validated tasks.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
}

// New creates an empty task registry.
func New() *Registry {
	return &Registry{
		tasks: make(map[string]*domain.Task),
	}
}

// Add validates and registers a task. Returns ErrTaskInvalid when validation
// fails and ErrTaskExists when the name is already taken.
func (r *Registry) Add(task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", relaberrors.ErrTaskInvalid)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.Name]; ok {
		return fmt.Errorf("%w: %s", relaberrors.ErrTaskExists, task.Name)
	}
	r.tasks[task.Name] = task
	r.order = append(r.order, task.Name)
	return nil
}

// Get retrieves a task by name. Returns ErrTaskNotFound if absent.
func (r *Registry) Get(name string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", relaberrors.ErrTaskNotFound, name)
	}
	return task, nil
}

// Has checks whether a task with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[name]
	return ok
}

// List returns all registered tasks in registration order.
func (r *Registry) List() []*domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Task, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tasks[name])
	}
	return out
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
