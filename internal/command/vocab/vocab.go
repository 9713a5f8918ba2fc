package vocab

import (
	"time"

	"replybot/internal/command"
	"replybot/internal/cooldown"
	"replybot/internal/middleware"
	"replybot/pkg/cmd"
)

// storeTimeout bounds each storage round trip made from an interaction.
const storeTimeout = 10 * time.Second

// Register adds the vocabulary commands to the default registry.
func Register(pageCooldown *cooldown.Limiter) {
	guarded := cmd.Chain(middleware.WithGuildOnly(), middleware.WithCommandLogger())
	command.RegisterCommand(&AddCommand{}, guarded)
	command.RegisterCommand(&RemoveCommand{}, guarded)
	command.RegisterCommand(&ListCommand{Cooldown: pageCooldown}, guarded)
	command.RegisterCommand(&LogsCommand{}, guarded)
}
