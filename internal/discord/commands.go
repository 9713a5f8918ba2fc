package discord

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"replybot/internal/command"
	"replybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// registerCommands syncs a guild's slash commands with the registry: obsolete
// commands are deleted and commands whose definition hash changed are created
// again. Hashes are remembered on disk next to the store.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	local := buildCommandDefinitions()
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	hashes := b.loadCommandHashes(guildID)

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		log.Printf("[WARN] [%s] Failed to list commands: %v", guildID, err)
	}
	for _, rc := range remote {
		if _, ok := localNames[rc.Name]; ok {
			continue
		}
		log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, rc.Name)
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, rc.Name, err)
			continue
		}
		delete(hashes, rc.Name)
	}

	for _, d := range changedDefinitions(local, hashes, remote) {
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Printf("[ERR] [%s] Failed to register %s: %v", guildID, d.Name, err)
			continue
		}
		hashes[d.Name] = hashCommand(d)
		log.Printf("[DONE] [%s] Registered: %s", guildID, d.Name)
		time.Sleep(25 * time.Millisecond)
	}

	b.saveCommandHashes(guildID, hashes)
	return nil
}

// changedDefinitions returns the definitions that are new on the remote side
// or whose hash differs from the remembered one.
func changedDefinitions(local []*discordgo.ApplicationCommand, hashes map[string]string, remote []*discordgo.ApplicationCommand) []*discordgo.ApplicationCommand {
	present := make(map[string]struct{}, len(remote))
	for _, rc := range remote {
		present[rc.Name] = struct{}{}
	}

	var changed []*discordgo.ApplicationCommand
	for _, d := range local {
		_, exists := present[d.Name]
		if !exists || hashes[d.Name] != hashCommand(d) {
			changed = append(changed, d)
		}
	}
	return changed
}

func buildCommandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range cmd.DefaultRegistry.GetAll() {
		a := command.Adapter(c)
		if a == nil {
			continue
		}
		if def := a.SlashDefinition(); def != nil {
			if def.Type == 0 {
				def.Type = discordgo.ChatApplicationCommand
			}
			defs = append(defs, def)
		}
	}
	return defs
}

func (b *Bot) appID() (string, error) {
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	user, err := b.dg.User("@me")
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (b *Bot) commandHashPath(guildID string) string {
	return filepath.Join(filepath.Dir(b.cfg.StoragePath), "commands", guildID+".json")
}

func (b *Bot) loadCommandHashes(guildID string) map[string]string {
	hashes := make(map[string]string)
	if raw, err := os.ReadFile(b.commandHashPath(guildID)); err == nil {
		_ = json.Unmarshal(raw, &hashes)
	}
	return hashes
}

func (b *Bot) saveCommandHashes(guildID string, hashes map[string]string) {
	path := b.commandHashPath(guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("[WARN] [%s] Failed to create command cache dir: %v", guildID, err)
		return
	}
	raw, _ := json.MarshalIndent(hashes, "", "  ")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		log.Printf("[WARN] [%s] Failed to save command hashes: %v", guildID, err)
	}
}
