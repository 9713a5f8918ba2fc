package vocab

import (
	"context"
	"errors"
	"fmt"
	"log"

	"replybot/internal/command"
	"replybot/internal/storage"
	"replybot/internal/trigger"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

type RemoveCommand struct{}

func (c *RemoveCommand) Name() string        { return "remove" }
func (c *RemoveCommand) Description() string { return "Remove a trigger from this server" }
func (c *RemoveCommand) Category() string    { return "💬 Vocabulary" }

func (c *RemoveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "trigger",
				Description:  "Trigger to delete",
				Required:     true,
				Autocomplete: true,
			},
		},
	}
}

func (c *RemoveCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	input := ""
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Name == "trigger" {
			input = opt.StringValue()
		}
	}

	opCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	records, err := sc.Engine.Triggers(opCtx, e.GuildID)
	if err != nil {
		return err
	}
	name, ok := resolveTrigger(records, input)
	if !ok {
		return command.RespondError(s, e, "Trigger not found", "`"+truncate(input, 200)+"`")
	}

	removed, err := sc.Engine.Remove(opCtx, e.GuildID, name)
	if errors.Is(err, trigger.ErrTriggerNotFound) {
		return command.RespondError(s, e, "Trigger not found", "`"+truncate(input, 200)+"`")
	}
	if err != nil {
		return fmt.Errorf("remove trigger: %w", err)
	}

	user := command.ResolveUser(e)
	if err := sc.Storage.AppendAudit(opCtx, e.GuildID, storage.AuditEntry{
		UserID:   user.ID,
		Username: user.Username,
		Action:   storage.AuditDelete,
		Record:   removed,
	}); err != nil {
		log.Printf("[WARN] Failed to write audit entry for guild %s: %v", e.GuildID, err)
	}

	msg := embed.NewEmbed().
		SetColor(command.ColorSuccess).
		SetTitle("Trigger removed").
		AddField("Trigger", truncate(removed.Trigger, fieldValueMax))
	return command.RespondEmbedEphemeral(s, e, msg.MessageEmbed)
}

func (c *RemoveCommand) Autocomplete(ctx *command.AutocompleteContext) error {
	e := ctx.Event
	query := ""
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Focused {
			query = opt.StringValue()
		}
	}

	opCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	records, err := ctx.Engine.Triggers(opCtx, e.GuildID)
	if err != nil {
		log.Printf("[WARN] Autocomplete for guild %s failed: %v", e.GuildID, err)
		records = nil
	}
	return command.RespondChoices(ctx.Session, e, autocompleteChoices(records, query))
}
