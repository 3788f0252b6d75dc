// Package adapter holds the glue between the core and its host process:
// configuration loading and logger setup.
package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Download DownloadConfig `mapstructure:"download"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig holds storage locations
type DataConfig struct {
	Dir string `mapstructure:"dir"` // Root directory for the database and snapshots
}

// DownloadConfig holds download queue settings
type DownloadConfig struct {
	QueueLimit  int  `mapstructure:"queue_limit"`  // Bound on the live queue view
	WifiOnly    bool `mapstructure:"wifi_only"`    // Defer downloads on metered connections
	HighQuality bool `mapstructure:"high_quality"` // Prefer HD renditions
}

// SyncConfig holds outbox settings
type SyncConfig struct {
	PollSeconds int `mapstructure:"poll_seconds"` // Outbox drain interval
	BatchSize   int `mapstructure:"batch_size"`   // Requests per drain
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir: defaultDataPath(),
		},
		Download: DownloadConfig{
			QueueLimit:  10,
			WifiOnly:    true,
			HighQuality: false,
		},
		Sync: SyncConfig{
			PollSeconds: 5,
			BatchSize:   20,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "emitron.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "emitron")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "emitron")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "emitron")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "emitron")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("EMITRON")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("data.dir", cfg.Data.Dir)
	viper.Set("download.queue_limit", cfg.Download.QueueLimit)
	viper.Set("download.wifi_only", cfg.Download.WifiOnly)
	viper.Set("download.high_quality", cfg.Download.HighQuality)
	viper.Set("sync.poll_seconds", cfg.Sync.PollSeconds)
	viper.Set("sync.batch_size", cfg.Sync.BatchSize)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
