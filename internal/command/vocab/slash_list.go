package vocab

import (
	"context"
	"fmt"
	"time"

	"replybot/internal/command"
	"replybot/internal/cooldown"
	"replybot/internal/trigger"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

// ListCommand shows the guild's triggers page by page. Cooldown gates the
// page buttons per user; nil disables the gate.
type ListCommand struct {
	Cooldown *cooldown.Limiter
}

func (c *ListCommand) Name() string        { return "list" }
func (c *ListCommand) Description() string { return "Show the triggers of this server" }
func (c *ListCommand) Category() string    { return "💬 Vocabulary" }

func (c *ListCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "visible",
				Description: "Show the list to everyone in the channel",
			},
		},
	}
}

func (c *ListCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	visible := false
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Name == "visible" {
			visible = opt.BoolValue()
		}
	}

	opCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	records, err := sc.Engine.Triggers(opCtx, e.GuildID)
	if err != nil {
		return err
	}

	name, icon := guildHeader(s, e.GuildID)
	page := listEmbed(name, icon, records, 0, time.Now())
	return command.RespondWithComponents(s, e, page, listButtons(records, 0), !visible)
}

func (c *ListCommand) Component(ctx *command.ComponentInteractionContext) error {
	s, e := ctx.Session, ctx.Event
	action, current, ok := parsePageButtonID(e.MessageComponentData().CustomID)
	if !ok || e.GuildID == "" {
		return nil
	}

	user := command.ResolveUser(e)
	if c.Cooldown != nil && c.Cooldown.Check(user.ID) {
		return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Slow down, try again in a moment.",
			Color:       command.ColorError,
		})
	}

	opCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	records, err := ctx.Engine.Triggers(opCtx, e.GuildID)
	if err != nil {
		return err
	}

	page := turnPage(action, current, pageCount(len(records), listPageSize))
	name, icon := guildHeader(s, e.GuildID)
	return command.UpdateMessage(s, e, listEmbed(name, icon, records, page, time.Now()), listButtons(records, page))
}

func listEmbed(guildName, iconURL string, records []trigger.Record, page int, now time.Time) *discordgo.MessageEmbed {
	total := pageCount(len(records), listPageSize)
	msg := embed.NewEmbed().
		SetColor(command.ColorList).
		SetTitle(fmt.Sprintf("%s vocabulary - %d triggers", guildName, len(records))).
		SetFooter(fmt.Sprintf("Page %d/%d • %s", page+1, total, now.Format(timeLayout)))
	if iconURL != "" {
		msg.SetThumbnail(iconURL)
	}

	fields := listFields(pageOf(records, page, listPageSize))
	if len(fields) == 0 {
		msg.AddField("📝 Vocabulary", "Nothing on this page yet.")
	}
	for _, f := range fields {
		msg.AddField(f.Name, f.Value)
	}
	return msg.Truncate().MessageEmbed
}

func listButtons(records []trigger.Record, page int) []discordgo.MessageComponent {
	single := pageCount(len(records), listPageSize) < 2
	button := func(action, emoji string, disabled bool) discordgo.MessageComponent {
		return discordgo.Button{
			CustomID: pageButtonID(action, page),
			Emoji:    &discordgo.ComponentEmoji{Name: emoji},
			Style:    discordgo.PrimaryButton,
			Disabled: disabled,
		}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(pageBack, "⬅️", single),
			button(pageRefresh, "🔄", false),
			button(pageNext, "➡️", single),
		}},
	}
}

func guildHeader(s *discordgo.Session, guildID string) (name, icon string) {
	g, err := s.State.Guild(guildID)
	if err != nil || g == nil {
		return "This server", ""
	}
	return g.Name, g.IconURL("1024")
}
