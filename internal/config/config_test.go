package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default store config
	if cfg.Store.Backend != BackendGitHub {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, BackendGitHub)
	}
	if cfg.Store.GHPath != "gh" {
		t.Errorf("Store.GHPath = %q, want %q", cfg.Store.GHPath, "gh")
	}
	if cfg.Store.UseFileStore() {
		t.Error("Store.UseFileStore() should be false by default")
	}

	// Verify default dispatch config
	if cfg.Dispatch.PlanTitlePrefix != "Plan:" {
		t.Errorf("Dispatch.PlanTitlePrefix = %q, want %q", cfg.Dispatch.PlanTitlePrefix, "Plan:")
	}
	if cfg.Dispatch.DryRun {
		t.Error("Dispatch.DryRun should be false by default")
	}
	if len(cfg.Dispatch.Labels) != 0 {
		t.Errorf("Dispatch.Labels = %v, want empty", cfg.Dispatch.Labels)
	}

	// Verify default rewrite config
	if cfg.Rewrite.CollapseCompleted {
		t.Error("Rewrite.CollapseCompleted should be false by default")
	}
	if !cfg.Rewrite.VerifyUnchanged {
		t.Error("Rewrite.VerifyUnchanged should be true by default")
	}

	// Verify default output config
	if cfg.Output.Format != FormatAuto {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, FormatAuto)
	}
	if cfg.Output.DescriptionWidth != 60 {
		t.Errorf("Output.DescriptionWidth = %d, want 60", cfg.Output.DescriptionWidth)
	}

	// Verify default logging config
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Dir != "" {
		t.Errorf("Logging.Dir = %q, want empty", cfg.Logging.Dir)
	}
	if cfg.Logging.MaxSizeMB != 5 || cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging rotation = %d/%d, want 5/3", cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
	}
}

func TestStoreConfig_UseFileStore(t *testing.T) {
	tests := []struct {
		backend string
		want    bool
	}{
		{"github", false},
		{"file", true},
		{"FILE", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c := StoreConfig{Backend: tt.backend}
			if got := c.UseFileStore(); got != tt.want {
				t.Errorf("UseFileStore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	// Test with XDG_CONFIG_HOME set
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		result := ConfigDir()
		expected := "/custom/config/roadmap"
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})

	// Test without XDG_CONFIG_HOME
	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		result := ConfigDir()

		// Should be based on home directory
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "roadmap")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := "/custom/config/roadmap/config.yaml"
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	// Set defaults in viper first (normally done by cmd init)
	SetDefaults()

	// Get() should return defaults when no config file exists
	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}

	// Should have default values
	if cfg.Store.Backend != BackendGitHub {
		t.Errorf("Get().Store.Backend = %q, want %q", cfg.Store.Backend, BackendGitHub)
	}
	if cfg.Dispatch.PlanTitlePrefix != "Plan:" {
		t.Errorf("Get().Dispatch.PlanTitlePrefix = %q, want %q", cfg.Dispatch.PlanTitlePrefix, "Plan:")
	}
}

func TestLoad_FromFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `store:
  backend: file
  repo: acme/app
dispatch:
  labels: [plan, roadmap]
  limit: 2
rewrite:
  collapse_completed: true
output:
  format: json
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Store.UseFileStore() || cfg.Store.Repo != "acme/app" {
		t.Errorf("Store = %+v, want file backend for acme/app", cfg.Store)
	}
	if len(cfg.Dispatch.Labels) != 2 || cfg.Dispatch.Limit != 2 {
		t.Errorf("Dispatch = %+v, want two labels and limit 2", cfg.Dispatch)
	}
	if !cfg.Rewrite.CollapseCompleted {
		t.Error("Rewrite.CollapseCompleted = false, want true")
	}
	// Unset keys keep their defaults
	if !cfg.Rewrite.VerifyUnchanged {
		t.Error("Rewrite.VerifyUnchanged = false, want default true")
	}
	if cfg.Output.Format != FormatJSON || cfg.Logging.Level != "debug" {
		t.Errorf("Output.Format = %q, Logging.Level = %q", cfg.Output.Format, cfg.Logging.Level)
	}
}

func TestLoad_InvalidFallsBackInGet(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("store.backend", "gitlab")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected validation error")
	}
	if cfg := Get(); cfg.Store.Backend != BackendGitHub {
		t.Errorf("Get().Store.Backend = %q, want default %q", cfg.Store.Backend, BackendGitHub)
	}
}
