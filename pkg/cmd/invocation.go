// Package cmd is a transport-agnostic command core. A command has a name, a
// description and Run(ctx, invocation); adapters (Discord interactions, the
// CLI) build the invocation and dispatch through a Registry.
package cmd

import (
	"context"
	"strings"
)

// Invocation is one call of a command. Data holds the adapter's own context
// type, e.g. a Discord interaction.
type Invocation struct {
	Name string // set by Registry.Run
	Args []string
	Data any
}

// Arg returns the i-th argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

// Rest joins the arguments from i on with single spaces.
func (inv *Invocation) Rest(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return strings.Join(inv.Args[i:], " ")
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
