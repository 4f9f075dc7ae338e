package discord

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// guildCachePath returns the hash-cache file for one guild.
func guildCachePath(cacheDir, guildID string) string {
	return filepath.Join(cacheDir, guildID+".json")
}

// loadGuildCommandHashes reads the cached command hashes for a guild.
// A missing or unreadable cache means everything gets re-registered.
func loadGuildCommandHashes(cacheDir, guildID string) map[string]string {
	hashes := make(map[string]string)
	if data, err := os.ReadFile(guildCachePath(cacheDir, guildID)); err == nil {
		_ = json.Unmarshal(data, &hashes)
	}
	return hashes
}

// saveGuildCommandHashes writes the cache; failures only cost an extra
// registration pass next startup.
func saveGuildCommandHashes(cacheDir, guildID string, hashes map[string]string) {
	path := guildCachePath(cacheDir, guildID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	data, _ := json.MarshalIndent(hashes, "", "  ")
	_ = os.WriteFile(path, data, 0644)
}
