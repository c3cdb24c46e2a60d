package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/keyring"
)

type Config struct {
	// DataDir holds the database, logs and backups
	DataDir string
	// DatabaseURL selects the PostgreSQL backend when set; empty means SQLite
	DatabaseURL string
	Debug       bool
}

// DefaultDataDir returns the per-platform application data directory:
// ~/Library/Application Support/carrot on macOS, %AppData%\carrot on Windows
// and $XDG_CONFIG_HOME/carrot (or ~/.config/carrot) elsewhere.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, constants.AppName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+constants.AppName)
	}
	return "." + constants.AppName
}

// Load reads CARROT_* environment overrides on top of the defaults. When no
// database URL is set in the environment, a connection string stored in the
// OS keyring is used.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix(constants.AppName)
	v.AutomaticEnv()
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("database_url", "")
	v.SetDefault("debug", false)

	cfg := Config{
		DataDir:     v.GetString("data_dir"),
		DatabaseURL: strings.TrimSpace(v.GetString("database_url")),
		Debug:       v.GetBool("debug"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = keyring.LookupConnectionString()
	}
	return cfg
}

// DatabasePath is the SQLite file inside DataDir
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, constants.DatabaseFileName)
}

// UsesPostgres reports whether the PostgreSQL backend is configured
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}
