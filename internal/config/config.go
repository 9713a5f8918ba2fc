package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// StorageConfig is the part of the configuration tools need to open the store.
type StorageConfig struct {
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"data/datastore.json"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/replybot.db"`
	AuditLogLimit int    `env:"AUDIT_LOG_LIMIT" envDefault:"100"`
}

type Config struct {
	DiscordToken   string   `env:"DISCORD_TOKEN,required,notEmpty"`
	GuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`

	StorageConfig

	CacheTTL      time.Duration `env:"TRIGGER_CACHE_TTL" envDefault:"5m"`
	CacheCapacity int           `env:"TRIGGER_CACHE_CAPACITY" envDefault:"100"`

	MessageCooldown time.Duration `env:"MESSAGE_COOLDOWN" envDefault:"500ms"`
	PageCooldown    time.Duration `env:"PAGE_COOLDOWN" envDefault:"2s"`
	SweepSchedule   string        `env:"SWEEP_SCHEDULE" envDefault:"@every 1m"`

	SendRate    float64 `env:"SEND_RATE" envDefault:"5"`
	SendBurst   int     `env:"SEND_BURST" envDefault:"5"`
	SendRetries int     `env:"SEND_RETRIES" envDefault:"3"`

	// empty disables the status server
	StatusAddr string `env:"STATUS_ADDR"`
}

// Load reads .env when present and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStorage reads only the storage settings, so it works without a token.
func LoadStorage() (*StorageConfig, error) {
	_ = godotenv.Load()

	var cfg StorageConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New is Load that exits the process on error.
func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("[ERR] Invalid configuration: %v", err)
	}
	return cfg
}

func (c *StorageConfig) validate() error {
	switch c.StorageDriver {
	case "json", "sqlite":
		return nil
	default:
		return fmt.Errorf("STORAGE_DRIVER must be json or sqlite, got %q", c.StorageDriver)
	}
}

func (c *Config) validate() error {
	if err := c.StorageConfig.validate(); err != nil {
		return err
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("TRIGGER_CACHE_TTL must be positive")
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("TRIGGER_CACHE_CAPACITY must be positive")
	}
	if c.SendRate <= 0 || c.SendBurst <= 0 {
		return fmt.Errorf("SEND_RATE and SEND_BURST must be positive")
	}
	return nil
}

// IsBlacklisted reports whether the bot should leave guildID.
func (c *Config) IsBlacklisted(guildID string) bool {
	for _, id := range c.GuildBlacklist {
		if id == guildID {
			return true
		}
	}
	return false
}
