package discord

import (
	"errors"
	"log"
	"strings"

	"replybot/internal/command"
	"replybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// onInteractionCreate routes slash commands by name and components, modals
// and autocomplete by the command that owns them.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		data := &command.SlashInteractionContext{Session: s, Event: i, Storage: b.storage, Engine: b.engine}
		err := cmd.DefaultRegistry.Run(b.ctx, name, &cmd.Invocation{Data: data})
		switch {
		case errors.Is(err, cmd.ErrUnknownCommand):
			log.Printf("[WARN] Unknown command: %s", name)
		case err != nil:
			b.fail(s, i, "slash command /"+name, err)
		}

	case discordgo.InteractionApplicationCommandAutocomplete:
		a := command.Adapter(cmd.DefaultRegistry.Get(i.ApplicationCommandData().Name))
		if a == nil {
			return
		}
		data := &command.AutocompleteContext{Session: s, Event: i, Storage: b.storage, Engine: b.engine}
		if err := a.Autocomplete(data); err != nil {
			log.Printf("[ERR] Autocomplete for /%s failed: %v", a.Name(), err)
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		a := adapterForCustomID(customID)
		if a == nil {
			log.Printf("[WARN] No matching component for customID: %s", customID)
			return
		}
		data := &command.ComponentInteractionContext{Session: s, Event: i, Storage: b.storage, Engine: b.engine}
		if err := a.Component(data); err != nil {
			b.fail(s, i, "component "+customID, err)
		}

	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		a := adapterForCustomID(customID)
		if a == nil {
			log.Printf("[WARN] No matching modal for customID: %s", customID)
			return
		}
		data := &command.ModalSubmitContext{Session: s, Event: i, Storage: b.storage, Engine: b.engine}
		if err := a.ModalSubmit(data); err != nil {
			b.fail(s, i, "modal "+customID, err)
		}

	default:
		log.Printf("[DEBUG] Unknown interaction type: %d", i.Type)
	}
}

func (b *Bot) fail(s *discordgo.Session, i *discordgo.InteractionCreate, what string, err error) {
	log.Printf("[ERR] Error running %s: %v", what, err)
	if rerr := command.RespondError(s, i, "Something went wrong", "Please try again later."); rerr != nil {
		log.Printf("[WARN] Failed to report error for %s: %v", what, rerr)
	}
}

// adapterForCustomID finds the command named by the part of customID before
// the first colon.
func adapterForCustomID(customID string) *command.DiscordAdapter {
	name, _, _ := strings.Cut(customID, ":")
	c := cmd.DefaultRegistry.Get(name)
	if c == nil {
		return nil
	}
	return command.Adapter(c)
}

