// Package voicerole maps administrative voice-role commands onto guild config
// reads and mutations. The Dispatcher is transport-agnostic: slash-command
// adapters translate platform events into these typed calls and render the
// results.
package voicerole

import (
	"errors"
	"fmt"
	"sort"

	"github.com/keshon/voice-warden/internal/storage"
)

// Authorizer reports whether a member may manage voice-role bindings in a
// guild. Implementations check the platform's manage-roles capability.
type Authorizer interface {
	CanManageRoles(guildID, userID string) (bool, error)
}

// Directory resolves display names for channels and roles. A false return
// means the entity no longer resolves; List drops such entries from output.
type Directory interface {
	ChannelName(guildID, channelID string) (string, bool)
	RoleName(guildID, roleID string) (string, bool)
}

// Result is a successful operation's reply payload.
type Result struct {
	Message string
}

// Assignment is one resolved channel-to-role binding in List output.
type Assignment struct {
	ChannelID   string
	ChannelName string
	RoleID      string
	RoleName    string
}

// Status summarizes a guild's configuration.
type Status struct {
	Enabled      bool
	ChannelCount int
	RoleCount    int
}

// Dispatcher executes the voice-role admin operations against a config store.
// Each call authorizes first, then performs at most one store mutation.
type Dispatcher struct {
	store *storage.Storage
	auth  Authorizer
	dir   Directory
}

// New builds a Dispatcher. All collaborators are injected; the dispatcher
// never reaches for ambient state.
func New(store *storage.Storage, auth Authorizer, dir Directory) *Dispatcher {
	return &Dispatcher{store: store, auth: auth, dir: dir}
}

func (d *Dispatcher) authorize(guildID, userID string) error {
	ok, err := d.auth.CanManageRoles(guildID, userID)
	if err != nil || !ok {
		return failf(KindUnauthorized, "You need the Manage Roles permission to use voice role commands.")
	}
	return nil
}

// Enable turns on voice-role grants. With a channel argument the channel
// becomes the guild's default; a role argument additionally binds the role to
// that channel. Without a channel, some channel must already be configured.
func (d *Dispatcher) Enable(guildID, userID, channelID, roleID string) (Result, error) {
	if err := d.authorize(guildID, userID); err != nil {
		return Result{}, err
	}
	if channelID == "" && roleID != "" {
		return Result{}, failf(KindMissingArgument, "A role can only be bound together with a channel.")
	}

	_, err := d.store.Mutate(guildID, func(cfg storage.GuildVoiceConfig) (storage.GuildVoiceConfig, error) {
		if channelID == "" {
			if cfg.DefaultChannelID == "" && len(cfg.ChannelRoles) == 0 {
				return cfg, failf(KindMissingArgument, "No voice channel is configured yet. Supply a channel to enable.")
			}
		} else {
			cfg.DefaultChannelID = channelID
			if roleID != "" {
				if err := bind(&cfg, channelID, roleID); err != nil {
					return cfg, err
				}
			}
		}
		cfg.Enabled = true
		return cfg, nil
	})
	if err != nil {
		return Result{}, wrapStoreErr(err)
	}
	return Result{Message: "Voice role grants are now enabled."}, nil
}

// Disable turns off voice-role grants. Disabling an already-disabled guild is
// not an error; the reply says so instead.
func (d *Dispatcher) Disable(guildID, userID string) (Result, error) {
	if err := d.authorize(guildID, userID); err != nil {
		return Result{}, err
	}

	wasEnabled := false
	_, err := d.store.Mutate(guildID, func(cfg storage.GuildVoiceConfig) (storage.GuildVoiceConfig, error) {
		wasEnabled = cfg.Enabled
		cfg.Enabled = false
		return cfg, nil
	})
	if err != nil {
		return Result{}, wrapStoreErr(err)
	}
	if !wasEnabled {
		return Result{Message: "Voice role grants were already disabled."}, nil
	}
	return Result{Message: "Voice role grants are now disabled."}, nil
}

// AddAssignment binds a role to a voice channel. One role per channel: adding
// to a channel that already has a role fails, whatever the role.
func (d *Dispatcher) AddAssignment(guildID, userID, channelID, roleID string) (Result, error) {
	if err := d.authorize(guildID, userID); err != nil {
		return Result{}, err
	}
	if channelID == "" || roleID == "" {
		return Result{}, failf(KindMissingArgument, "Both a channel and a role are required.")
	}

	_, err := d.store.Mutate(guildID, func(cfg storage.GuildVoiceConfig) (storage.GuildVoiceConfig, error) {
		if err := bind(&cfg, channelID, roleID); err != nil {
			return cfg, err
		}
		return cfg, nil
	})
	if err != nil {
		return Result{}, wrapStoreErr(err)
	}
	return Result{Message: fmt.Sprintf("Bound role <@&%s> to channel <#%s>.", roleID, channelID)}, nil
}

// RemoveAssignment unbinds a role from a voice channel. The supplied role must
// match the stored one so a typo can't silently delete the wrong binding.
func (d *Dispatcher) RemoveAssignment(guildID, userID, channelID, roleID string) (Result, error) {
	if err := d.authorize(guildID, userID); err != nil {
		return Result{}, err
	}
	if channelID == "" || roleID == "" {
		return Result{}, failf(KindMissingArgument, "Both a channel and a role are required.")
	}

	_, err := d.store.Mutate(guildID, func(cfg storage.GuildVoiceConfig) (storage.GuildVoiceConfig, error) {
		roles := cfg.ChannelRoles[channelID]
		if len(roles) == 0 {
			return cfg, failf(KindNotFound, "That channel has no role binding.")
		}
		idx := -1
		for i, r := range roles {
			if r == roleID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return cfg, failf(KindRoleMismatch, "That channel is bound to a different role. Check the binding with the list command.")
		}
		cfg.ChannelRoles[channelID] = append(roles[:idx], roles[idx+1:]...)
		return cfg, nil
	})
	if err != nil {
		return Result{}, wrapStoreErr(err)
	}
	return Result{Message: fmt.Sprintf("Removed role binding from channel <#%s>.", channelID)}, nil
}

// List returns the guild's bindings with resolved display names. Bindings
// whose channel or role no longer resolves are omitted, not reported.
func (d *Dispatcher) List(guildID, userID string) ([]Assignment, error) {
	if err := d.authorize(guildID, userID); err != nil {
		return nil, err
	}

	cfg, err := d.store.Get(guildID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	channels := make([]string, 0, len(cfg.ChannelRoles))
	for channel := range cfg.ChannelRoles {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	var out []Assignment
	for _, channel := range channels {
		channelName, ok := d.dir.ChannelName(guildID, channel)
		if !ok {
			continue
		}
		for _, role := range cfg.ChannelRoles[channel] {
			roleName, ok := d.dir.RoleName(guildID, role)
			if !ok {
				continue
			}
			out = append(out, Assignment{
				ChannelID:   channel,
				ChannelName: channelName,
				RoleID:      role,
				RoleName:    roleName,
			})
		}
	}
	return out, nil
}

// GuildStatus reports the enable flag and binding counts.
func (d *Dispatcher) GuildStatus(guildID, userID string) (Status, error) {
	if err := d.authorize(guildID, userID); err != nil {
		return Status{}, err
	}

	cfg, err := d.store.Get(guildID)
	if err != nil {
		return Status{}, wrapStoreErr(err)
	}

	channels := make(map[string]bool, len(cfg.ChannelRoles)+1)
	roleCount := 0
	for channel, roles := range cfg.ChannelRoles {
		channels[channel] = true
		roleCount += len(roles)
	}
	if cfg.DefaultChannelID != "" {
		channels[cfg.DefaultChannelID] = true
	}
	return Status{Enabled: cfg.Enabled, ChannelCount: len(channels), RoleCount: roleCount}, nil
}

// bind adds the (channel, role) pair, enforcing the one-role-per-channel
// command policy. The store's own invariant is looser (it permits several
// roles per channel); the restriction is deliberate at this layer.
func bind(cfg *storage.GuildVoiceConfig, channelID, roleID string) error {
	if len(cfg.ChannelRoles[channelID]) > 0 {
		return failf(KindDuplicateAssignment, "That channel already has a role bound. Remove it first.")
	}
	cfg.ChannelRoles[channelID] = []string{roleID}
	return nil
}

// wrapStoreErr converts storage errors into dispatcher errors with
// user-presentable messages. Dispatcher errors pass through untouched.
func wrapStoreErr(err error) error {
	var derr *Error
	if errors.As(err, &derr) {
		return derr
	}
	var verr *storage.ValidationError
	if errors.As(err, &verr) {
		return failf(KindValidation, "That change would leave the configuration in an invalid state.")
	}
	var perr *storage.PersistenceError
	if errors.As(err, &perr) {
		return failf(KindPersistence, "Couldn't save the settings. Nothing was changed; try again later.")
	}
	return failf(KindPersistence, "Couldn't read the settings. Try again later.")
}
