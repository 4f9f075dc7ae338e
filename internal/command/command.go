// Package command defines the bot's command contracts: the Command interface,
// the transport contexts handed to Run, and the registry commands join from
// their init functions.
package command

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/voice-warden/internal/storage"
)

// ErrRejected marks an invocation a middleware refused after already replying
// to the member. Handlers must not send another reply when they see it.
var ErrRejected = errors.New("command rejected")

// Command is the contract every bot command implements. Run receives one of
// the context types below depending on the transport that invoked it.
type Command interface {
	Name() string
	Description() string
	Group() string
	Category() string
	Run(ctx interface{}) error
}

// SlashProvider is implemented by commands that register a slash definition.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// DiscordMeta exposes the permissions a member needs to run the command.
// The permission middleware consults it; an empty list means no restriction.
type DiscordMeta interface {
	UserPermissions() []int64
}

// SlashInteractionContext is the payload for slash-command invocations.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Store   *storage.Storage
}
