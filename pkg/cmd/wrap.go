package cmd

import "context"

// RunFunc is the body of a wrapping layer.
type RunFunc func(ctx context.Context, inv *Invocation) error

// Unwrappable is a layer over another command.
type Unwrappable interface {
	Command
	Unwrap() Command
}

// layer keeps the identity of next and replaces its Run.
type layer struct {
	next Command
	run  RunFunc
}

func (l *layer) Name() string        { return l.next.Name() }
func (l *layer) Description() string { return l.next.Description() }
func (l *layer) Unwrap() Command     { return l.next }

func (l *layer) Run(ctx context.Context, inv *Invocation) error {
	if l.run == nil {
		return l.next.Run(ctx, inv)
	}
	return l.run(ctx, inv)
}

// Wrap returns a layer over c that runs run. A nil run passes through.
func Wrap(c Command, run RunFunc) Command {
	return &layer{next: c, run: run}
}

// As walks from the outermost layer inwards and returns the first one that
// implements T.
func As[T any](c Command) (T, bool) {
	for c != nil {
		if t, ok := c.(T); ok {
			return t, true
		}
		u, ok := c.(Unwrappable)
		if !ok {
			break
		}
		c = u.Unwrap()
	}
	var zero T
	return zero, false
}

// Root is the innermost command under all layers.
func Root(c Command) Command {
	for {
		u, ok := c.(Unwrappable)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}
