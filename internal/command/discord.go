package command

import (
	"context"

	"replybot/internal/storage"
	"replybot/internal/trigger"
	"replybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Discord-specific contexts (what the runtime passes when executing).

type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Engine  *trigger.Engine
}

type ComponentInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Engine  *trigger.Engine
}

type ModalSubmitContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Engine  *trigger.Engine
}

type AutocompleteContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
	Engine  *trigger.Engine
}

// Providers: how a command plugs into each interaction type.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

type ComponentInteractionHandler interface {
	Component(*ComponentInteractionContext) error
}

type ModalSubmitHandler interface {
	ModalSubmit(*ModalSubmitContext) error
}

type AutocompleteHandler interface {
	Autocomplete(*AutocompleteContext) error
}

// DiscordMeta is exposed by the adapter so middleware can read the category
// without depending on the concrete command type.
type DiscordMeta interface {
	Category() string
}

// DiscordCommand is what individual Discord commands implement.
type DiscordCommand interface {
	Name() string
	Description() string
	Category() string
	Run(ctx interface{}) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry, delegating every provider interface to the inner command.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string        { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string { return a.Cmd.Description() }
func (a *DiscordAdapter) Category() string    { return a.Cmd.Category() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	return a.Cmd.Run(inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func (a *DiscordAdapter) Component(ctx *ComponentInteractionContext) error {
	if h, ok := a.Cmd.(ComponentInteractionHandler); ok {
		return h.Component(ctx)
	}
	return nil
}

func (a *DiscordAdapter) ModalSubmit(ctx *ModalSubmitContext) error {
	if h, ok := a.Cmd.(ModalSubmitHandler); ok {
		return h.ModalSubmit(ctx)
	}
	return nil
}

func (a *DiscordAdapter) Autocomplete(ctx *AutocompleteContext) error {
	if h, ok := a.Cmd.(AutocompleteHandler); ok {
		return h.Autocomplete(ctx)
	}
	return nil
}

// RegisterCommand registers a Discord command with the universal registry and applies middlewares.
func RegisterCommand(discordCmd DiscordCommand, mws ...cmd.Middleware) {
	cmd.DefaultRegistry.MustRegister(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}

// Adapter returns the DiscordAdapter under any middleware, or nil.
func Adapter(c cmd.Command) *DiscordAdapter {
	a, _ := cmd.As[*DiscordAdapter](c)
	return a
}

// ResolveUser returns the invoking user for guild and DM interactions.
func ResolveUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{}
}
