package middleware

import (
	"context"
	"log"
	"time"

	"replybot/internal/command"
	"replybot/pkg/cmd"
)

// WithCommandLogger logs each slash invocation with its outcome and duration.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			v, ok := inv.Data.(*command.SlashInteractionContext)
			if !ok {
				return err
			}
			user := command.ResolveUser(v.Event)
			if err != nil {
				log.Printf("[CMD] /%s by %s (%s) in guild %s failed after %v: %v",
					c.Name(), user.Username, user.ID, v.Event.GuildID, time.Since(start), err)
			} else {
				log.Printf("[CMD] /%s by %s (%s) in guild %s done in %v",
					c.Name(), user.Username, user.ID, v.Event.GuildID, time.Since(start))
			}
			return err
		})
	}
}
