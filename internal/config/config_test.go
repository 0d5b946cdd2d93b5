package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := Load()
	if cfg.WorkDir != "." {
		t.Errorf("WorkDir = %q", cfg.WorkDir)
	}
	if cfg.ContextLines != 3 {
		t.Errorf("ContextLines = %d", cfg.ContextLines)
	}
	if cfg.MaxFiles != 50 || cfg.MaxLines != 2000 {
		t.Errorf("thresholds = %d files / %d lines", cfg.MaxFiles, cfg.MaxLines)
	}
	if cfg.RenameMaxFiles != 200 {
		t.Errorf("RenameMaxFiles = %d", cfg.RenameMaxFiles)
	}
	if cfg.TestCommand != "go test ./..." {
		t.Errorf("TestCommand = %q", cfg.TestCommand)
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("max_files", 10)
	viper.Set("test_command", "pytest -q")

	cfg := Load()
	if cfg.MaxFiles != 10 {
		t.Errorf("MaxFiles = %d, want 10", cfg.MaxFiles)
	}
	if cfg.TestCommand != "pytest -q" {
		t.Errorf("TestCommand = %q", cfg.TestCommand)
	}
}
