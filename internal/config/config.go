// This file defines the configuration structure for the application.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port    int `mapstructure:"port"`
	Backend struct {
		Origin     string `mapstructure:"origin"`
		MinVersion string `mapstructure:"min_version"`
	} `mapstructure:"backend"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Uploads struct {
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
		CleanupHours  int    `mapstructure:"cleanup_hours"`
	} `mapstructure:"uploads"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")

	// Environment variables with a "CONVERTAGENT_" prefix override file
	// values, e.g. CONVERTAGENT_BACKEND_ORIGIN overrides `backend.origin`.
	viper.SetEnvPrefix("CONVERTAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8790)
	viper.SetDefault("backend.origin", "http://localhost:8765")
	viper.SetDefault("backend.min_version", "1.0.0")
	viper.SetDefault("database.path", "./convertagent.db")
	viper.SetDefault("uploads.path", "./uploads")
	viper.SetDefault("uploads.retention_days", 7)
	viper.SetDefault("uploads.cleanup_hours", 6)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// The origin is used as a URL prefix when rewriting file links, so a
	// trailing slash would produce double slashes downstream.
	config.Backend.Origin = strings.TrimRight(config.Backend.Origin, "/")

	return &config, nil
}
