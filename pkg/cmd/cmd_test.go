package cmd

import (
	"context"
	"errors"
	"testing"
)

type named struct {
	name string
	ran  []string
}

func (n *named) Name() string        { return n.name }
func (n *named) Description() string { return n.name + " command" }
func (n *named) Run(ctx context.Context, inv *Invocation) error {
	n.ran = append(n.ran, n.name)
	return nil
}

func TestRegistry_GetAllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&named{name: "remove"})
	r.Register(&named{name: "add"})
	r.Register(&named{name: "list"})

	all := r.GetAll()
	if len(all) != 3 || all[0].Name() != "add" || all[2].Name() != "remove" {
		t.Fatalf("unexpected order %v", all)
	}
	if r.Get("missing") != nil {
		t.Fatalf("want nil for unknown command")
	}
}

func TestApply_OrderAndRoot(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}

	inner := &named{name: "add"}
	c := Apply(inner, mw("first"), mw("second"))

	if err := c.Run(context.Background(), &Invocation{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("want last middleware outermost, got %v", order)
	}
	if Root(c) != inner {
		t.Fatalf("want Root to reach the inner command")
	}
	if c.Name() != "add" {
		t.Fatalf("want name delegated, got %q", c.Name())
	}
}

func TestRegistry_RejectsDuplicateAndEmptyNames(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&named{name: "add"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(&named{name: "add"}); !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("want ErrDuplicateCommand, got %v", err)
	}
	if err := r.Register(&named{}); err == nil {
		t.Fatalf("want error for empty name")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("want MustRegister to panic on duplicate")
		}
	}()
	r.MustRegister(&named{name: "add"})
}

func TestRegistry_Run(t *testing.T) {
	r := NewRegistry()
	inner := &named{name: "match"}
	r.MustRegister(inner)

	inv := &Invocation{Args: []string{"hello", "there"}}
	if err := r.Run(context.Background(), "match", inv); err != nil {
		t.Fatalf("run: %v", err)
	}
	if inv.Name != "match" || len(inner.ran) != 1 {
		t.Fatalf("want one dispatch named match, got name %q runs %d", inv.Name, len(inner.ran))
	}
	if err := r.Run(context.Background(), "nope", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("want ErrUnknownCommand, got %v", err)
	}
}

type categorized struct{ named }

func (c *categorized) Category() string { return "Vocabulary" }

func TestAs_FindsLayerThroughWrappers(t *testing.T) {
	inner := &categorized{named{name: "list"}}
	passthrough := func(c Command) Command { return Wrap(c, nil) }
	c := Apply(inner, passthrough, passthrough)

	got, ok := As[interface{ Category() string }](c)
	if !ok || got.Category() != "Vocabulary" {
		t.Fatalf("want category layer found, got %v %v", got, ok)
	}
	if _, ok := As[*categorized](nil); ok {
		t.Fatalf("want no match for nil command")
	}
	if err := c.Run(context.Background(), &Invocation{}); err != nil || len(inner.ran) != 1 {
		t.Fatalf("nil run must pass through, err=%v runs=%d", err, len(inner.ran))
	}
}

func TestInvocation_ArgAndRest(t *testing.T) {
	inv := &Invocation{Args: []string{"list", "a", "b"}}
	if inv.Arg(0) != "list" || inv.Arg(5) != "" || inv.Arg(-1) != "" {
		t.Fatalf("unexpected Arg results")
	}
	if got := inv.Rest(1); got != "a b" {
		t.Fatalf("want %q, got %q", "a b", got)
	}
	if got := inv.Rest(3); got != "" {
		t.Fatalf("want empty rest, got %q", got)
	}
}
