package middleware

import (
	"context"

	"replybot/internal/command"
	"replybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// WithGuildOnly rejects slash invocations that do not come from a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if v, ok := inv.Data.(*command.SlashInteractionContext); ok && v.Event.GuildID == "" {
				return command.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
					Description: "This command can only be used in a server.",
					Color:       command.ColorError,
				})
			}
			return c.Run(ctx, inv)
		})
	}
}
