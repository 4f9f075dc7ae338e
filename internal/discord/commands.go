package discord

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/voice-warden/internal/command"
)

// registerCommands reconciles a guild's slash commands with the registry:
// obsolete commands are deleted, changed ones re-created. A per-guild hash
// cache avoids re-sending unchanged definitions on every startup, and the
// shared limiter paces creates across guilds.
func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	existing, _ := b.dg.ApplicationCommands(appID, guildID)
	localHashes := loadGuildCommandHashes(b.cfg.CommandCacheDir, guildID)

	var wanted []*discordgo.ApplicationCommand
	wantedHashes := make(map[string]string)
	for _, cmd := range command.All() {
		if def := slashDefinition(cmd); def != nil {
			wanted = append(wanted, def)
			wantedHashes[def.Name] = hashCommand(def)
		}
	}

	for _, old := range existing {
		if _, ok := wantedHashes[old.Name]; !ok {
			log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, old.Name)
			if err := b.dg.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
				log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, old.Name, err)
			}
			delete(localHashes, old.Name)
		}
	}

	for _, cmd := range wanted {
		newHash := wantedHashes[cmd.Name]
		if localHashes[cmd.Name] == newHash {
			continue
		}
		if err := b.limiter.Wait(context.Background()); err != nil {
			return err
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			log.Printf("[ERR] [%s] Can't create command %s: %v", guildID, cmd.Name, err)
			continue
		}
		log.Printf("[DONE] [%s] Command created: %s", guildID, cmd.Name)
		localHashes[cmd.Name] = newHash
	}

	saveGuildCommandHashes(b.cfg.CommandCacheDir, guildID, localHashes)
	return nil
}

// slashDefinition returns a command's slash definition with the default type
// filled in, or nil when the command has none.
func slashDefinition(cmd command.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}
