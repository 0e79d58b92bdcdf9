package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Result captures the outcome of a tool call.
type Result struct {
	Text string
}

// Handler executes a tool.
type Handler func(ctx context.Context, args map[string]interface{}) (Result, error)

// ErrUnknownTool indicates the requested tool has no registered handler.
var ErrUnknownTool = errors.New("unknown tool")

type entry struct {
	def     Definition
	handler Handler
}

// Registry maps tool names to their definitions and handlers.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register associates a tool definition with an executable handler.
func (r *Registry) Register(def Definition, h Handler) error {
	if def.Name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if SanitizeName(def.Name) != def.Name {
		return fmt.Errorf("register tool %q: name may only contain letters, digits, '_' and '-'", def.Name)
	}
	if h == nil {
		return fmt.Errorf("register tool %q: nil handler", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Name]; exists {
		return fmt.Errorf("register tool %q: already registered", def.Name)
	}
	r.entries[def.Name] = entry{def: def, handler: h}
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup finds a tool definition by name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.def, ok
}

// List returns all registered definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].def)
	}
	return out
}

// Call executes the handler registered for the given tool name.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (Result, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return e.handler(ctx, args)
}
