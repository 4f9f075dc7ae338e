package discord

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// onVoiceStateUpdate applies configured role grants when members move between
// voice channels. All role mutation is best-effort: an API failure is logged
// and the next state change reconciles again.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.GuildID == "" || v.UserID == s.State.User.ID {
		return
	}

	cfg, err := b.store.Get(v.GuildID)
	if err != nil {
		log.Printf("[ERR] Failed to load config for guild %s: %v", v.GuildID, err)
		return
	}
	if !cfg.Enabled {
		return
	}

	var before string
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	now := v.ChannelID
	if before == now {
		// Mute/deafen toggles arrive as voice state updates too.
		return
	}

	for _, roleID := range cfg.ChannelRoles[before] {
		if err := s.GuildMemberRoleRemove(v.GuildID, v.UserID, roleID); err != nil {
			log.Printf("[WARN] Failed to revoke role %s from %s in guild %s: %v", roleID, v.UserID, v.GuildID, err)
		} else {
			log.Printf("[INFO] Revoked role %s from %s (left channel %s)", roleID, v.UserID, before)
		}
	}
	for _, roleID := range cfg.ChannelRoles[now] {
		if err := s.GuildMemberRoleAdd(v.GuildID, v.UserID, roleID); err != nil {
			log.Printf("[WARN] Failed to grant role %s to %s in guild %s: %v", roleID, v.UserID, v.GuildID, err)
		} else {
			log.Printf("[INFO] Granted role %s to %s (joined channel %s)", roleID, v.UserID, now)
		}
	}
}
