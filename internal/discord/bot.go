package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"replybot/internal/config"
	"replybot/internal/storage"
	"replybot/internal/trigger"
	"replybot/pkg/retrylimit"
	"replybot/pkg/util"

	"github.com/bwmarrin/discordgo"
)

// commandSyncWorkers bounds concurrent per-guild command syncs on ready.
const commandSyncWorkers = 4

// Bot connects the trigger engine and the slash commands to a Discord session.
type Bot struct {
	dg      *discordgo.Session
	cfg     *config.Config
	storage *storage.Storage
	engine  *trigger.Engine
	replies *Dispatcher
	ctx     context.Context
	synced  guildClaims
}

// guildClaims records which guilds already had their commands synced, so
// Ready and the GuildCreate burst that follows it sync each guild once.
type guildClaims struct {
	mu   sync.Mutex
	seen map[string]bool
}

// claim reports whether guildID was not claimed before and marks it.
func (c *guildClaims) claim(guildID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[guildID] {
		return false
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	c.seen[guildID] = true
	return true
}

func (c *guildClaims) release(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, guildID)
}

// StartBot runs the bot until ctx is done.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, engine *trigger.Engine) error {
	b := &Bot{
		cfg:     cfg,
		storage: store,
		engine:  engine,
		ctx:     ctx,
	}
	if err := b.run(ctx, cfg.DiscordToken); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context, token string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg
	b.replies = NewDispatcher(dg,
		retrylimit.NewLimiter(b.cfg.SendRate, b.cfg.SendBurst),
		retrylimit.Config{MaxAttempts: b.cfg.SendRetries, Retryable: isRetryable},
	)

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onGuildDelete)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	var guildIDs []string
	for _, g := range r.Guilds {
		if !b.synced.claim(g.ID) {
			continue
		}
		if !b.leaveIfBlacklisted(s, g.ID) {
			guildIDs = append(guildIDs, g.ID)
		}
	}

	err := util.ForEach(b.ctx, guildIDs, commandSyncWorkers, func(_ context.Context, guildID string) error {
		if err := b.registerCommands(guildID); err != nil {
			return fmt.Errorf("guild %s: %w", guildID, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERR] Error registering slash commands: %v", err)
	}
	log.Printf("[INFO] ✅ Discord bot %v is running.", r.User.Username)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Guild available: %s (%s)", g.ID, g.Name)
	if !b.synced.claim(g.ID) {
		return
	}
	if b.leaveIfBlacklisted(s, g.ID) {
		return
	}
	if err := b.registerCommands(g.ID); err != nil {
		log.Printf("[ERR] Failed to register commands for guild %s: %v", g.ID, err)
	}
}

// onGuildDelete forgets guilds the bot left so a rejoin syncs again. Outages
// keep the claim.
func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.synced.release(g.ID)
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.IsBlacklisted(guildID) {
		return false
	}
	log.Printf("[INFO] Leaving blacklisted guild: %s", guildID)
	if err := s.GuildLeave(guildID); err != nil {
		log.Printf("[ERR] Failed to leave guild %s: %v", guildID, err)
	}
	return true
}

// onMessageCreate runs every guild message through the trigger engine.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.GuildID == "" {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if m.Type != discordgo.MessageTypeDefault && m.Type != discordgo.MessageTypeReply {
		return
	}

	resp := b.engine.HandleMessage(b.ctx, trigger.Message{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
	})
	if resp == nil {
		return
	}
	if err := b.replies.Send(b.ctx, m.Message, resp); err != nil {
		log.Printf("[ERR] Failed to send reply in channel %s: %v", m.ChannelID, err)
	}
}
