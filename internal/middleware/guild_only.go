package middleware

import (
	"github.com/keshon/voice-warden/internal/bot"
	"github.com/keshon/voice-warden/internal/command"

	"github.com/bwmarrin/discordgo"
)

// WithGuildOnly rejects invocations from outside a guild (DMs).
func WithGuildOnly() command.Middleware {
	return func(c command.Command) command.Command {
		return &command.WrappedCommand{Command: c, Wrap: func(ctx interface{}) error {
			if v, ok := ctx.(*command.SlashInteractionContext); ok && v.Event.GuildID == "" {
				if err := bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
					Description: "This command only works inside a server.",
				}); err != nil {
					return err
				}
				return command.ErrRejected
			}
			return c.Run(ctx)
		}}
	}
}
