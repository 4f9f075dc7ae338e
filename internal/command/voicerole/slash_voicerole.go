// Package voicerole is the slash-command adapter for the voice-role
// dispatcher: it translates interaction options into typed dispatcher calls
// and renders results as embeds.
package voicerole

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/voice-warden/internal/bot"
	"github.com/keshon/voice-warden/internal/command"
	"github.com/keshon/voice-warden/internal/voicerole"
)

// SlashCommand wires /voicerole to a dispatcher. The dispatcher is injected
// at registration time in main.
type SlashCommand struct {
	Dispatcher *voicerole.Dispatcher
}

func (c *SlashCommand) Name() string        { return "voicerole" }
func (c *SlashCommand) Description() string { return "Bind voice channels to automatic role grants" }
func (c *SlashCommand) Group() string       { return "voicerole" }
func (c *SlashCommand) Category() string    { return "⚙️ Settings" }

func (c *SlashCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionManageRoles}
}

func (c *SlashCommand) SlashDefinition() *discordgo.ApplicationCommand {
	voiceChannel := func(required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Voice channel to watch",
			Required:     required,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
		}
	}
	role := func(required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "Role to grant while members are in the channel",
			Required:    required,
		}
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enable",
				Description: "Enable voice role grants",
				Options: []*discordgo.ApplicationCommandOption{
					voiceChannel(false),
					role(false),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Disable voice role grants",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Bind a role to a voice channel",
				Options: []*discordgo.ApplicationCommandOption{
					voiceChannel(true),
					role(true),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a role binding from a voice channel",
				Options: []*discordgo.ApplicationCommandOption{
					voiceChannel(true),
					role(true),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List configured channel-role bindings",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show the current voice role configuration",
			},
		},
	}
}

func (c *SlashCommand) Run(ctx interface{}) error {
	context, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s := context.Session
	e := context.Event

	data := e.ApplicationCommandData()
	if len(data.Options) == 0 {
		return replyError(s, e, "No subcommand provided.")
	}
	if e.Member == nil || e.Member.User == nil {
		return replyError(s, e, "Couldn't identify the calling member.")
	}

	sub := data.Options[0]
	guildID := e.GuildID
	userID := e.Member.User.ID
	channelID, roleID := subOptions(sub)

	switch sub.Name {
	case "enable":
		res, err := c.Dispatcher.Enable(guildID, userID, channelID, roleID)
		return replyResult(s, e, res, err)
	case "disable":
		res, err := c.Dispatcher.Disable(guildID, userID)
		return replyResult(s, e, res, err)
	case "add":
		res, err := c.Dispatcher.AddAssignment(guildID, userID, channelID, roleID)
		return replyResult(s, e, res, err)
	case "remove":
		res, err := c.Dispatcher.RemoveAssignment(guildID, userID, channelID, roleID)
		return replyResult(s, e, res, err)
	case "list":
		list, err := c.Dispatcher.List(guildID, userID)
		if err != nil {
			return replyDispatchErr(s, e, err)
		}
		return replyList(s, e, list)
	case "status":
		status, err := c.Dispatcher.GuildStatus(guildID, userID)
		if err != nil {
			return replyDispatchErr(s, e, err)
		}
		return replyStatus(s, e, status)
	}
	return replyError(s, e, "Unknown subcommand.")
}

// subOptions pulls the channel and role options out of a subcommand, when present.
func subOptions(sub *discordgo.ApplicationCommandInteractionDataOption) (channelID, roleID string) {
	for _, opt := range sub.Options {
		switch opt.Name {
		case "channel":
			if ch := opt.ChannelValue(nil); ch != nil {
				channelID = ch.ID
			}
		case "role":
			if r := opt.RoleValue(nil, ""); r != nil {
				roleID = r.ID
			}
		}
	}
	return channelID, roleID
}

func replyResult(s *discordgo.Session, e *discordgo.InteractionCreate, res voicerole.Result, err error) error {
	if err != nil {
		return replyDispatchErr(s, e, err)
	}
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Description: "✅ " + res.Message,
	})
}

func replyDispatchErr(s *discordgo.Session, e *discordgo.InteractionCreate, err error) error {
	return replyError(s, e, err.Error())
}

func replyError(s *discordgo.Session, e *discordgo.InteractionCreate, message string) error {
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Description: "⛔ " + message,
	})
}

func replyList(s *discordgo.Session, e *discordgo.InteractionCreate, list []voicerole.Assignment) error {
	if len(list) == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "No channel-role bindings configured. Use `/voicerole add` to create one.",
		})
	}
	lines := make([]string, 0, len(list))
	for _, a := range list {
		lines = append(lines, fmt.Sprintf("🔊 **%s** → **%s**", a.ChannelName, a.RoleName))
	}
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       "Voice role bindings",
		Description: strings.Join(lines, "\n"),
	})
}

func replyStatus(s *discordgo.Session, e *discordgo.InteractionCreate, status voicerole.Status) error {
	state := "disabled"
	if status.Enabled {
		state = "enabled"
	}
	return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title: "Voice role status",
		Description: fmt.Sprintf(
			"Grants are **%s**.\nChannels configured: **%d**\nRoles bound: **%d**",
			state, status.ChannelCount, status.RoleCount,
		),
	})
}
