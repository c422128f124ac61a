package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	dbFileName       = "portfolio.db"
	settingsName     = "settings"
	settingsFileName = settingsName + ".yaml"

	// DefaultSaveDelay is the quiet period before edits are written.
	DefaultSaveDelay = 3 * time.Second
	// DefaultRecentWindow is how far back the recent filter looks.
	DefaultRecentWindow = 7 * 24 * time.Hour
)

// Config holds resolved configuration for the data directory and database.
type Config struct {
	DataDir      string // resolved .portfolio directory path
	DBPath       string // full path to portfolio.db
	SettingsPath string // full path to settings.yaml
	EnvVarSet    bool   // whether PORTFOLIO_PATH was used
}

// Resolve returns the current configuration by checking PORTFOLIO_PATH
// first, then falling back to $PWD/.portfolio.
func Resolve() (*Config, error) {
	var dataDir string
	var envVarSet bool

	if envPath := os.Getenv("PORTFOLIO_PATH"); envPath != "" {
		dataDir = envPath
		envVarSet = true
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(cwd, ".portfolio")
	}

	return &Config{
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, dbFileName),
		SettingsPath: filepath.Join(dataDir, settingsFileName),
		EnvVarSet:    envVarSet,
	}, nil
}

// Exists checks if the data directory and DB file both exist.
// It returns an error for non-existence failures (e.g. permission errors).
func (c *Config) Exists() (bool, error) {
	if _, err := os.Stat(c.DataDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := os.Stat(c.DBPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Settings are the user-tunable values read from settings.yaml and
// PORTFOLIO_* environment variables.
type Settings struct {
	SaveDelay    time.Duration `json:"save_delay"`
	RecentWindow time.Duration `json:"recent_window"`
	AwardsFile   string        `json:"awards_file,omitempty"`
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(settingsName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("save_delay", DefaultSaveDelay)
	v.SetDefault("recent_window", DefaultRecentWindow)
	v.SetDefault("awards_file", "")

	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()
	return v
}

// LoadSettings reads settings from the data directory. A missing settings
// file yields the defaults.
func (c *Config) LoadSettings() (*Settings, error) {
	v := newViper(c.DataDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	s := &Settings{
		SaveDelay:    v.GetDuration("save_delay"),
		RecentWindow: v.GetDuration("recent_window"),
		AwardsFile:   v.GetString("awards_file"),
	}
	if s.SaveDelay <= 0 {
		return nil, fmt.Errorf("save_delay must be positive, got %s", s.SaveDelay)
	}
	if s.RecentWindow <= 0 {
		return nil, fmt.Errorf("recent_window must be positive, got %s", s.RecentWindow)
	}
	if s.AwardsFile != "" && !filepath.IsAbs(s.AwardsFile) {
		s.AwardsFile = filepath.Join(c.DataDir, s.AwardsFile)
	}
	return s, nil
}

// WriteDefaultSettings creates settings.yaml with the default values unless
// it already exists.
func (c *Config) WriteDefaultSettings() error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("save_delay", DefaultSaveDelay.String())
	v.Set("recent_window", DefaultRecentWindow.String())

	if err := v.SafeWriteConfigAs(c.SettingsPath); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
