package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("command already registered")
)

// DefaultRegistry holds the Discord commands.
var DefaultRegistry = NewRegistry()

// Registry maps names to commands and dispatches invocations. Safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds c. Names must be non-empty and unique.
func (r *Registry) Register(c Command) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("register: command has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCommand)
	}
	r.commands[name] = c
	return nil
}

// MustRegister is Register for package setup code; it panics on error.
func (r *Registry) MustRegister(c Command) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the command with the given name, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// Run dispatches inv to the command called name.
func (r *Registry) Run(ctx context.Context, name string, inv *Invocation) error {
	c := r.Get(name)
	if c == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if inv == nil {
		inv = &Invocation{}
	}
	inv.Name = name
	return c.Run(ctx, inv)
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
