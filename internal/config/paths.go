package config

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDirEnv overrides the user configuration directory.
	ConfigDirEnv = "RALPH_LOOP_CONFIG_DIR"
	// DataDirEnv overrides the user data directory holding logs.
	DataDirEnv = "RALPH_LOOP_DATA_DIR"

	// SettingsFileName is the user settings file inside the config directory.
	SettingsFileName = "settings.yaml"
	// ProjectFileName is the per-project file inside the project's .claude directory.
	ProjectFileName = "ralph-loop.yaml"

	appDirName = "ralph-loop"
	logsSubdir = "logs"
)

// ConfigDir returns $RALPH_LOOP_CONFIG_DIR or ~/.config/ralph-loop.
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// DataDir returns $RALPH_LOOP_DATA_DIR or ~/.local/ralph-loop.
func DataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", appDirName), nil
}

// DefaultLogsDir returns the logs directory under DataDir.
func DefaultLogsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logsSubdir), nil
}

// UserSettingsFile returns the path of the user settings file.
func UserSettingsFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// ProjectFile returns the path of the project file under workDir.
func ProjectFile(workDir string) string {
	return filepath.Join(workDir, ".claude", ProjectFileName)
}
