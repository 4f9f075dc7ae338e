package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	DiscordToken          string        `env:"DISCORD_TOKEN,required"`
	StoragePath           string        `env:"STORAGE_PATH" envDefault:"data/voice-warden.json"`
	CommandCacheDir       string        `env:"COMMAND_CACHE_DIR" envDefault:"data/commands"`
	InitSlashCommands     bool          `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	ConnectMaxAttempts    int           `env:"CONNECT_MAX_ATTEMPTS" envDefault:"5"`
	ConnectBaseDelay      time.Duration `env:"CONNECT_BASE_DELAY" envDefault:"1s"`
	CommandCreatesPerSec  float64       `env:"COMMAND_CREATES_PER_SEC" envDefault:"40"`
	DiscordGuildBlacklist []string      `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
}

// New loads .env (if present) and parses the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, using system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
