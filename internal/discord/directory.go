package discord

import (
	"github.com/keshon/voice-warden/internal/voicerole"
)

// Directory returns a name resolver backed by this bot's session state, with
// an API fallback for entities the state cache hasn't seen.
func (b *Bot) Directory() voicerole.Directory {
	return sessionDirectory{bot: b}
}

type sessionDirectory struct {
	bot *Bot
}

func (d sessionDirectory) ChannelName(guildID, channelID string) (string, bool) {
	s := d.bot.dg
	if s == nil {
		return "", false
	}
	channel, err := s.State.Channel(channelID)
	if err != nil || channel == nil {
		if channel, err = s.Channel(channelID); err != nil || channel == nil {
			return "", false
		}
	}
	return channel.Name, true
}

func (d sessionDirectory) RoleName(guildID, roleID string) (string, bool) {
	s := d.bot.dg
	if s == nil {
		return "", false
	}
	role, err := s.State.Role(guildID, roleID)
	if err != nil || role == nil {
		roles, err := s.GuildRoles(guildID)
		if err != nil {
			return "", false
		}
		for _, r := range roles {
			if r.ID == roleID {
				role = r
				break
			}
		}
		if role == nil {
			return "", false
		}
	}
	return role.Name, true
}
