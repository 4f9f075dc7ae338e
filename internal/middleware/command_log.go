package middleware

import (
	"errors"
	"log"

	"github.com/keshon/voice-warden/internal/command"

	"github.com/bwmarrin/discordgo"
)

// WithCommandLogger logs every invocation with guild, user, and outcome.
// Refusals by other middleware are logged as rejections, not successes.
func WithCommandLogger() command.Middleware {
	return func(c command.Command) command.Command {
		return &command.WrappedCommand{Command: c, Wrap: func(ctx interface{}) error {
			err := c.Run(ctx)
			if v, ok := ctx.(*command.SlashInteractionContext); ok {
				user := resolveUser(v.Event)
				switch {
				case errors.Is(err, command.ErrRejected):
					log.Printf("[WARN] /%s by %s in guild %s rejected", c.Name(), user.Username, v.Event.GuildID)
				case err != nil:
					log.Printf("[WARN] /%s by %s in guild %s failed: %v", c.Name(), user.Username, v.Event.GuildID, err)
				default:
					log.Printf("[INFO] /%s by %s in guild %s", c.Name(), user.Username, v.Event.GuildID)
				}
			}
			return err
		}}
	}
}

// resolveUser extracts the invoking user from an interaction event.
func resolveUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "unknown"}
}
