package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a term-coder session.
// Values are populated from .term-coder.yaml, TERM_CODER_* env vars, and
// CLI flags.
type Config struct {
	WorkDir        string `mapstructure:"work_dir"`
	ContextLines   int    `mapstructure:"context_lines"`
	MaxFiles       int    `mapstructure:"max_files"`        // safety scorer file threshold
	MaxLines       int    `mapstructure:"max_lines"`        // safety scorer line threshold
	RenameMaxFiles int    `mapstructure:"rename_max_files"` // rename engine file cap
	TestCommand    string `mapstructure:"test_command"`
	Verbose        bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("work_dir", ".")
	viper.SetDefault("context_lines", 3)
	viper.SetDefault("max_files", 50)
	viper.SetDefault("max_lines", 2000)
	viper.SetDefault("rename_max_files", 200)
	viper.SetDefault("test_command", "go test ./...")
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
