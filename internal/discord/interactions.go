package discord

import (
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/voice-warden/internal/bot"
	"github.com/keshon/voice-warden/internal/command"
)

// onInteractionCreate routes slash-command interactions to the registry.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	cmd, ok := command.Get(cmdName)
	if !ok {
		log.Printf("[WARN] Unknown command: %s", cmdName)
		return
	}

	ctx := &command.SlashInteractionContext{
		Session: s,
		Event:   i,
		Store:   b.store,
	}
	if err := cmd.Run(ctx); err != nil {
		// A rejecting middleware has already replied.
		if errors.Is(err, command.ErrRejected) {
			return
		}
		log.Println("[ERR] Error running slash command:", err)
		_ = bot.RespondEphemeral(s, i, fmt.Sprintf("⛔ Error running command: %v", err))
	}
}
