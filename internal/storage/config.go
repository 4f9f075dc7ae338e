package storage

import "fmt"

// GuildVoiceConfig is the per-guild voice-role binding state. A guild with no
// stored record behaves as the zero value: disabled, no bindings.
type GuildVoiceConfig struct {
	Enabled          bool                `json:"enabled"`
	ChannelRoles     map[string][]string `json:"channel_roles"`
	DefaultChannelID string              `json:"default_channel_id,omitempty"`
}

// Clone returns a deep copy so callers can never mutate stored state through
// a snapshot.
func (c GuildVoiceConfig) Clone() GuildVoiceConfig {
	out := c
	out.ChannelRoles = make(map[string][]string, len(c.ChannelRoles))
	for channel, roles := range c.ChannelRoles {
		out.ChannelRoles[channel] = append([]string(nil), roles...)
	}
	return out
}

// normalize drops channels whose role set became empty; an empty set and an
// absent channel are the same state and only one representation is stored.
func (c *GuildVoiceConfig) normalize() {
	for channel, roles := range c.ChannelRoles {
		if len(roles) == 0 {
			delete(c.ChannelRoles, channel)
		}
	}
}

// validate enforces the structural invariants before a config is persisted.
func (c GuildVoiceConfig) validate() error {
	for channel, roles := range c.ChannelRoles {
		if channel == "" {
			return &ValidationError{Reason: "channel id must not be empty"}
		}
		seen := make(map[string]bool, len(roles))
		for _, role := range roles {
			if role == "" {
				return &ValidationError{Reason: fmt.Sprintf("empty role id for channel %s", channel)}
			}
			if seen[role] {
				return &ValidationError{Reason: fmt.Sprintf("role %s bound twice to channel %s", role, channel)}
			}
			seen[role] = true
		}
	}
	if c.Enabled && c.DefaultChannelID == "" && len(c.ChannelRoles) == 0 {
		return &ValidationError{Reason: "cannot enable with no voice channel configured"}
	}
	return nil
}
