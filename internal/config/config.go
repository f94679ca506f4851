// Package config loads the server configuration from the environment,
// reading a .env file first outside of production.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StageProd = "prod"
	StageDev  = "dev"
)

type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"log_level"`
	// Format is "json" or "console".
	Format string `mapstructure:"log_format"`
}

type Config struct {
	Stage string `mapstructure:"stage"`
	Port  int    `mapstructure:"port"`

	// DatabaseURL enables the analytics counters when set.
	DatabaseURL string `mapstructure:"database_url"`
	// MigrationDir overrides the migration source; empty uses the bundled one.
	MigrationDir string `mapstructure:"migration_dir"`

	// Default board used when a create request leaves a dimension at zero.
	BoardHeight int `mapstructure:"board_height"`
	BoardWidth  int `mapstructure:"board_width"`
	// Largest board a client may ask for.
	MaxBoardHeight int `mapstructure:"max_board_height"`
	MaxBoardWidth  int `mapstructure:"max_board_width"`

	SubscriberBuffer int           `mapstructure:"subscriber_buffer"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	SessionTTL       time.Duration `mapstructure:"session_ttl"`

	Logging LoggingConfig `mapstructure:",squash"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func (c Config) AnalyticsEnabled() bool {
	return c.DatabaseURL != ""
}

// Validate returns nil or one error listing every violation.
func (c Config) Validate() error {
	var errs []string

	if c.Stage != StageDev && c.Stage != StageProd {
		errs = append(errs, fmt.Sprintf("stage must be either dev or prod, got %q", c.Stage))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port must be 1-65535, got %d", c.Port))
	}
	if c.BoardHeight < 1 || c.BoardWidth < 1 {
		errs = append(errs, fmt.Sprintf("board dimensions must be positive, got %dx%d", c.BoardHeight, c.BoardWidth))
	}
	if c.MaxBoardHeight < 1 || c.MaxBoardWidth < 1 {
		errs = append(errs, fmt.Sprintf("max board dimensions must be positive, got %dx%d", c.MaxBoardHeight, c.MaxBoardWidth))
	} else if c.BoardHeight > c.MaxBoardHeight || c.BoardWidth > c.MaxBoardWidth {
		errs = append(errs, fmt.Sprintf("default board %dx%d exceeds max board %dx%d", c.BoardHeight, c.BoardWidth, c.MaxBoardHeight, c.MaxBoardWidth))
	}
	if c.SubscriberBuffer < 1 {
		errs = append(errs, fmt.Sprintf("subscriber_buffer must be >= 1, got %d", c.SubscriberBuffer))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, "cleanup_interval must be positive")
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, "session_ttl must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("log_format must be one of [json, console], got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads envFile into the process environment unless STAGE is prod,
// then builds and validates the config from environment variables.
// A missing envFile is not an error.
func Load(envFile string) (Config, error) {
	if os.Getenv("STAGE") != StageProd {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return LoadFromViper(v)
}

func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("stage", StageDev)
	v.SetDefault("port", 9191)
	v.SetDefault("database_url", "")
	v.SetDefault("migration_dir", "")
	v.SetDefault("board_height", 11)
	v.SetDefault("board_width", 18)
	v.SetDefault("max_board_height", 100)
	v.SetDefault("max_board_width", 100)
	v.SetDefault("subscriber_buffer", 64)
	v.SetDefault("cleanup_interval", "5m")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}
