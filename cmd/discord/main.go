// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"replybot/internal/command/core"
	"replybot/internal/command/vocab"
	"replybot/internal/config"
	"replybot/internal/cooldown"
	"replybot/internal/discord"
	"replybot/internal/maintenance"
	"replybot/internal/statusserver"
	"replybot/internal/storage"
	"replybot/internal/trigger"
	v "replybot/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.New()

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath, cfg.SQLitePath, cfg.AuditLogLimit)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	cache := trigger.NewCache(store,
		trigger.WithTTL(cfg.CacheTTL),
		trigger.WithCapacity(cfg.CacheCapacity),
	)
	msgCooldown := cooldown.New(cfg.MessageCooldown)
	pageCooldown := cooldown.New(cfg.PageCooldown)
	engine := trigger.NewEngine(store, cache, msgCooldown, nil)

	vocab.Register(pageCooldown)
	core.Register()

	sweeper := maintenance.New(cfg.SweepSchedule,
		maintenance.CooldownTask("message-cooldown", msgCooldown),
		maintenance.CooldownTask("page-cooldown", pageCooldown),
		maintenance.CacheTask(cache),
	)
	if err := sweeper.Start(); err != nil {
		log.Fatal(err)
	}
	defer sweeper.Stop()

	if cfg.StatusAddr != "" {
		go statusserver.New(engine).Run(ctx, cfg.StatusAddr)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := discord.StartBot(ctx, cfg, store, engine); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
