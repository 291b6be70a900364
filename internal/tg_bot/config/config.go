package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Update delivery modes.
const (
	UpdateModePolling = "polling"
	UpdateModeWebhook = "webhook"
)

// Storage backends.
const (
	StorageFile     = "file"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// EnvFileName is the optional dotenv file read before the process environment.
const EnvFileName = "bot.env"

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel   string `env:"LOG_LEVEL" envDefault:"info"`             // Log level for the application (e.g., debug, info)
	EnvLogFileName string `env:"LOG_FILE_NAME" envDefault:"relayBot.log"` // File's name for log
	EnvBotToken    string `env:"TOKEN_BOT,required,notEmpty"`             // Telegram Bot Token
	EnvBotDebug    bool   `env:"BOT_DEBUG" envDefault:"false"`            // Verbose tgbotapi logging

	EnvAdminIDs     []int64 `env:"ADMIN_IDS" envSeparator:","`        // Telegram IDs with admin rights
	EnvStartCommand string  `env:"START_COMMAND" envDefault:"/start"` // Text that always opens the menu

	EnvUpdateMode        string `env:"UPDATE_MODE" envDefault:"polling"`       // polling or webhook
	EnvWebhookURL        string `env:"WEBHOOK_URL"`                            // Public URL registered with Telegram
	EnvWebhookListenAddr string `env:"WEBHOOK_LISTEN_ADDR" envDefault:":8080"` // Local address of the webhook server
	EnvWebhookSecret     string `env:"WEBHOOK_SECRET"`                         // X-Telegram-Bot-Api-Secret-Token value

	EnvStorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"file"`                 // file, mysql, postgres or redis
	EnvStoragePath      string        `env:"FILE_STORAGE_PATH" envDefault:"relayBotState.json"` // Snapshot file of the file backend
	EnvDatabaseDSN      string        `env:"DATABASE_DSN"`                                      // DSN of the SQL backends
	EnvRedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`            // Redis host:port
	EnvRedisPassword    string        `env:"REDIS_PASSWORD"`                                    // Redis password
	EnvRedisDB          int           `env:"REDIS_DB" envDefault:"0"`                           // Redis database number
	EnvChannelsSeedFile string        `env:"CHANNELS_SEED_FILE"`                                // YAML with the initial channel options
	EnvSaveInterval     time.Duration `env:"SAVE_INTERVAL" envDefault:"5m"`                     // Snapshot period of the file backend

	admins map[int64]struct{}
}

// NewConfig initializes a new Config instance from the environment.
// Variables from bot.env are loaded first when the file exists; variables already set
// in the process environment win. It returns an error if a required variable is missing
// or a value is invalid.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(EnvFileName); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", EnvFileName, err)
		}
		logrus.Debugf("%s not found, using process environment only", EnvFileName)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.admins = make(map[int64]struct{}, len(cfg.EnvAdminIDs))
	for _, id := range cfg.EnvAdminIDs {
		cfg.admins[id] = struct{}{}
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EnvUpdateMode {
	case UpdateModePolling:
	case UpdateModeWebhook:
		if c.EnvWebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required when UPDATE_MODE=%s", UpdateModeWebhook)
		}
	default:
		return fmt.Errorf("unknown UPDATE_MODE %q", c.EnvUpdateMode)
	}

	switch c.EnvStorageBackend {
	case StorageFile, StorageRedis:
	case StorageMySQL, StoragePostgres:
		if c.EnvDatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORAGE_BACKEND=%s", c.EnvStorageBackend)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.EnvStorageBackend)
	}

	if c.EnvStartCommand == "" {
		return errors.New("START_COMMAND must not be empty")
	}
	if c.EnvSaveInterval <= 0 {
		return errors.New("SAVE_INTERVAL must be positive")
	}
	return nil
}

// AdminSet returns the administrator IDs as a set, computed once at load time.
func (c *Config) AdminSet() map[int64]struct{} {
	return c.admins
}
