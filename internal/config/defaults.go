package config

import (
	"github.com/schmitthub/ralphloop/internal/ralph"
	"github.com/spf13/viper"
)

// SetDefaults registers the built-in value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("max_iterations", ralph.DefaultMaxIterations)
	v.SetDefault("completion_promise", ralph.DefaultCompletionPromise)
	v.SetDefault("state_dir", ralph.DefaultStateDir)

	v.SetDefault("logging.file_enabled", true)
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_age_days", 7)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.dir", "")
}
