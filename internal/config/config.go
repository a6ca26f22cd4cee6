// Package config loads ralph-loop settings.
//
// Sources, lowest to highest precedence: built-in defaults, the user
// settings file, the project file, RALPH_LOOP_* environment variables.
// Command flags are applied on top by the commands themselves.
package config

import (
	"path/filepath"

	"github.com/schmitthub/ralphloop/internal/logger"
)

// Config is the resolved ralph-loop configuration.
type Config struct {
	MaxIterations     int           `mapstructure:"max_iterations" yaml:"max_iterations"`
	CompletionPromise string        `mapstructure:"completion_promise" yaml:"completion_promise"`
	StateDir          string        `mapstructure:"state_dir" yaml:"state_dir"`
	Logging           LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Files lists the config files that were merged, lowest precedence first.
	Files []string `mapstructure:"-" yaml:"-"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	FileEnabled *bool  `mapstructure:"file_enabled" yaml:"file_enabled"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
}

// LoggerConfig converts to the logger package's configuration.
func (l LoggingConfig) LoggerConfig() *logger.LoggingConfig {
	return &logger.LoggingConfig{
		FileEnabled: l.FileEnabled,
		MaxSizeMB:   l.MaxSizeMB,
		MaxAgeDays:  l.MaxAgeDays,
		MaxBackups:  l.MaxBackups,
	}
}

// StateDirPath resolves the state directory against workDir.
func (c *Config) StateDirPath(workDir string) string {
	if filepath.IsAbs(c.StateDir) || workDir == "" {
		return c.StateDir
	}
	return filepath.Join(workDir, c.StateDir)
}

// LogsDir returns the configured log directory, or the default under the
// user's data directory.
func (c *Config) LogsDir() (string, error) {
	if c.Logging.Dir != "" {
		return c.Logging.Dir, nil
	}
	return DefaultLogsDir()
}
