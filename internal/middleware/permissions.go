package middleware

import (
	"fmt"
	"strings"

	"github.com/keshon/voice-warden/internal/bot"
	"github.com/keshon/voice-warden/internal/command"

	"github.com/bwmarrin/discordgo"
)

// PermissionNames maps the permission bits this bot cares about to display
// names for rejection messages.
var PermissionNames = map[int64]string{
	discordgo.PermissionAdministrator: "Administrator",
	discordgo.PermissionManageGuild:   "Manage Server",
	discordgo.PermissionManageRoles:   "Manage Roles",
}

// WithUserPermissionCheck rejects members missing every permission the
// command's DiscordMeta requires. Administrators always pass.
func WithUserPermissionCheck() command.Middleware {
	return func(c command.Command) command.Command {
		return &command.WrappedCommand{Command: c, Wrap: func(ctx interface{}) error {
			v, ok := ctx.(*command.SlashInteractionContext)
			if !ok {
				return c.Run(ctx)
			}
			m := v.Event.Member
			if v.Event.GuildID == "" || m == nil || m.User == nil {
				return c.Run(ctx)
			}

			meta, ok := c.(command.DiscordMeta)
			if !ok {
				return c.Run(ctx)
			}
			required := meta.UserPermissions()
			if len(required) == 0 {
				return c.Run(ctx)
			}

			perms, err := v.Session.UserChannelPermissions(m.User.ID, v.Event.ChannelID)
			if err != nil {
				return fmt.Errorf("resolve member permissions: %w", err)
			}
			if perms&discordgo.PermissionAdministrator != 0 {
				return c.Run(ctx)
			}
			for _, p := range required {
				if perms&p != 0 {
					return c.Run(ctx)
				}
			}

			var names []string
			for _, p := range required {
				name := PermissionNames[p]
				if name == "" {
					name = fmt.Sprintf("0x%x", p)
				}
				names = append(names, name)
			}
			if err := bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
				Description: fmt.Sprintf(
					"You need at least one of the following permissions to run this command:\n`%s`",
					strings.Join(names, "`, `"),
				),
			}); err != nil {
				return err
			}
			return command.ErrRejected
		}}
	}
}
