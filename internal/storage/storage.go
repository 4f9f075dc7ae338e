// Package storage is the typed, validated accessor over the guild key-value
// backend. It is the sole writer of guild voice configs: readers get snapshot
// copies and all changes go through Mutate, which serializes writers per guild
// while leaving unrelated guilds unblocked.
package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/keshon/voice-warden/datastore"
)

// Backend is the persistent key-value store a Storage writes through.
// *datastore.DataStore satisfies it; tests substitute failing fakes.
type Backend interface {
	Get(key string) (any, bool)
	Put(key string, value any)
	Delete(key string)
	SaveToFile() error
}

// Storage provides atomic per-guild access to voice-role configs.
type Storage struct {
	backend Backend

	mu     sync.Mutex // guards guilds
	guilds map[string]*sync.Mutex
}

// New opens a file-backed Storage at the given path.
func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(ds), nil
}

// NewWithBackend wraps an existing backend.
func NewWithBackend(b Backend) *Storage {
	return &Storage{backend: b, guilds: make(map[string]*sync.Mutex)}
}

// Close flushes and closes the backend when it supports closing.
func (s *Storage) Close() error {
	if c, ok := s.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// guildLock returns the mutex serializing mutations for one guild. Mutations
// on different guilds proceed in parallel; only the map lookup is shared.
func (s *Storage) guildLock(guildID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.guilds[guildID]
	if !ok {
		lock = &sync.Mutex{}
		s.guilds[guildID] = lock
	}
	return lock
}

// Get returns a snapshot of the guild's config, reflecting the most recently
// completed mutation. It waits for any in-flight Mutate on the same guild, so
// a reader never observes state that a failed persist then rolls back. A guild
// without a stored record yields the disabled default; nothing is written on
// read.
func (s *Storage) Get(guildID string) (GuildVoiceConfig, error) {
	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	raw, ok := s.backend.Get(guildID)
	if !ok {
		return GuildVoiceConfig{ChannelRoles: map[string][]string{}}, nil
	}
	return decode(raw)
}

// Mutate applies fn to the guild's current config and persists the result as
// one atomic step. Calls for the same guild serialize in arrival order; an
// error from fn, validation, or the backend leaves the stored state unchanged.
func (s *Storage) Mutate(guildID string, fn func(GuildVoiceConfig) (GuildVoiceConfig, error)) (GuildVoiceConfig, error) {
	lock := s.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	prev, existed := s.backend.Get(guildID)

	current := GuildVoiceConfig{ChannelRoles: map[string][]string{}}
	if existed {
		var err error
		if current, err = decode(prev); err != nil {
			return GuildVoiceConfig{}, err
		}
	}

	next, err := fn(current.Clone())
	if err != nil {
		return GuildVoiceConfig{}, err
	}
	if next.ChannelRoles == nil {
		next.ChannelRoles = map[string][]string{}
	}
	next.normalize()
	if err := next.validate(); err != nil {
		return GuildVoiceConfig{}, err
	}

	s.backend.Put(guildID, next)
	if err := s.backend.SaveToFile(); err != nil {
		// Roll back so later readers never observe the unpersisted state.
		if existed {
			s.backend.Put(guildID, prev)
		} else {
			s.backend.Delete(guildID)
		}
		return GuildVoiceConfig{}, &PersistenceError{Err: err}
	}
	return next.Clone(), nil
}

// decode converts whatever the backend holds (a typed config right after Put,
// or a map[string]any loaded from disk) back into a GuildVoiceConfig.
func decode(raw any) (GuildVoiceConfig, error) {
	if cfg, ok := raw.(GuildVoiceConfig); ok {
		return cfg.Clone(), nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return GuildVoiceConfig{}, fmt.Errorf("storage: marshal stored record: %w", err)
	}
	var cfg GuildVoiceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return GuildVoiceConfig{}, fmt.Errorf("storage: unmarshal stored record: %w", err)
	}
	if cfg.ChannelRoles == nil {
		cfg.ChannelRoles = map[string][]string{}
	}
	return cfg, nil
}
