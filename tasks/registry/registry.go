package registry

import (
	"sort"
	"sync"

	"beacons-hub/tasks/handlers"
)

// HandlerRegistry resolves the handler of a task from its declared type.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]handlers.TaskHandler
}

func NewRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string]handlers.TaskHandler),
	}
}

// Register binds a handler to a task type. Call during startup.
func (r *HandlerRegistry) Register(taskType string, handler handlers.TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[taskType] = handler
}

func (r *HandlerRegistry) Get(taskType string) (handlers.TaskHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[taskType]
	return h, ok
}

// GetRegisteredTypes lists registered types in sorted order.
func (r *HandlerRegistry) GetRegisteredTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for taskType := range r.handlers {
		types = append(types, taskType)
	}
	sort.Strings(types)
	return types
}
