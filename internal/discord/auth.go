package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/voice-warden/internal/voicerole"
)

// Authorizer returns the dispatcher's capability check backed by this bot's
// session. Guild owners and administrators always pass.
func (b *Bot) Authorizer() voicerole.Authorizer {
	return sessionAuthorizer{bot: b}
}

type sessionAuthorizer struct {
	bot *Bot
}

func (a sessionAuthorizer) CanManageRoles(guildID, userID string) (bool, error) {
	s := a.bot.dg
	if s == nil {
		return false, fmt.Errorf("session not connected")
	}

	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		if guild, err = s.Guild(guildID); err != nil || guild == nil {
			return false, fmt.Errorf("resolve guild %s: %w", guildID, err)
		}
	}
	if userID == guild.OwnerID {
		return true, nil
	}

	member, err := s.State.Member(guildID, userID)
	if err != nil || member == nil {
		if member, err = s.GuildMember(guildID, userID); err != nil || member == nil {
			return false, fmt.Errorf("resolve member %s: %w", userID, err)
		}
	}

	for _, roleID := range member.Roles {
		role, _ := s.State.Role(guildID, roleID)
		if role == nil {
			continue
		}
		if role.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageRoles) != 0 {
			return true, nil
		}
	}
	return false, nil
}
