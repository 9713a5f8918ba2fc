package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"replybot/internal/command"
	"replybot/internal/middleware"
	"replybot/internal/trigger"
	"replybot/internal/version"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

type AboutCommand struct{}

func (c *AboutCommand) Name() string        { return "about" }
func (c *AboutCommand) Description() string { return "Show bot version and vocabulary stats" }
func (c *AboutCommand) Category() string    { return "🕯️ Information" }

func (c *AboutCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *AboutCommand) Run(ctx interface{}) error {
	sc, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return fmt.Errorf("wrong context type")
	}

	opCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := sc.Engine.Triggers(opCtx, sc.Event.GuildID)
	if err != nil {
		return err
	}
	return command.RespondEmbedEphemeral(sc.Session, sc.Event, aboutEmbed(records, sc.Engine.Cache().Stats()))
}

func aboutEmbed(records []trigger.Record, stats trigger.CacheStats) *discordgo.MessageEmbed {
	buildDate := "unknown"
	if t, err := time.Parse(time.RFC3339, version.BuildDate); err == nil {
		buildDate = t.Format("2006-01-02")
	}
	goVer := strings.TrimPrefix(version.GoVersion, "go")

	exact := 0
	for _, r := range records {
		if r.MatchType == trigger.MatchExact {
			exact++
		}
	}

	return embed.NewEmbed().
		SetColor(command.ColorList).
		SetDescription(fmt.Sprintf("ℹ️ **About %s**\n\n%s", version.AppName, version.AppDescription)).
		AddField("Release", fmt.Sprintf("%s (Go %s)", buildDate, goVer)).
		AddField("Triggers", fmt.Sprintf("%d (%d exact, %d contains)", len(records), exact, len(records)-exact)).
		AddField("Cache", fmt.Sprintf("%d/%d guilds, %d hits, %d misses", stats.Entries, stats.Capacity, stats.Hits, stats.Misses)).
		MessageEmbed
}

// Register adds the informational commands to the default registry.
func Register() {
	command.RegisterCommand(&AboutCommand{}, middleware.WithGuildOnly(), middleware.WithCommandLogger())
}
