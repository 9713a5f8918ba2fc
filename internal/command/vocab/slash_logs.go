package vocab

import (
	"context"
	"fmt"
	"time"

	"replybot/internal/command"
	"replybot/internal/storage"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

type LogsCommand struct{}

func (c *LogsCommand) Name() string        { return "logs" }
func (c *LogsCommand) Description() string { return "Show recent vocabulary changes" }
func (c *LogsCommand) Category() string    { return "💬 Vocabulary" }

func (c *LogsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "visible",
				Description: "Show the log to everyone in the channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "page",
				Description: "Page to show",
			},
		},
	}
}

func (c *LogsCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	visible, page := false, 1
	for _, opt := range e.ApplicationCommandData().Options {
		switch opt.Name {
		case "visible":
			visible = opt.BoolValue()
		case "page":
			page = int(opt.IntValue())
		}
	}

	opCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	entries, err := sc.Storage.FetchAudit(opCtx, e.GuildID)
	if err != nil {
		return err
	}

	msg := logsEmbed(entries, page, time.UTC)
	if visible {
		return command.RespondEmbed(s, e, msg)
	}
	return command.RespondEmbedEphemeral(s, e, msg)
}

// logsEmbed renders one page of the audit log; page is one-based and clamped.
func logsEmbed(entries []storage.AuditEntry, page int, loc *time.Location) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return embed.NewEmbed().
			SetColor(command.ColorSuccess).
			SetTitle("📋 Change log").
			SetDescription("No changes recorded yet.").
			MessageEmbed
	}

	total := pageCount(len(entries), logsPageSize)
	page = clampPage(page, total)

	msg := embed.NewEmbed().
		SetColor(command.ColorSuccess).
		SetTitle("📋 Change log").
		SetFooter(fmt.Sprintf("Page %d/%d • %d entries", page, total, len(entries)))
	for _, entry := range pageOf(entries, page-1, logsPageSize) {
		f := auditField(entry, loc)
		msg.AddField(f.Name, f.Value)
	}
	return msg.Truncate().MessageEmbed
}
