package mirsal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("creates a default config file on first run", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "mirsal")

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
			t.Fatalf("\nwanted:\nconfig.yaml\ngot:\n%v", err)
		}
		if cfg.UserAgent != defaultUserAgent || cfg.Timeout != defaultTimeout || cfg.RateBurst != defaultRateBurst {
			t.Fatalf("\nwanted:\ndefaults\ngot:\n%+v", cfg)
		}
		if cfg.ConfigDir != dir {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", dir, cfg.ConfigDir)
		}
	})

	t.Run("reads an existing file", func(t *testing.T) {
		dir := t.TempDir()
		content := "api_base: https://central.example\nrate_limit: 5\nauth_scope:\n  - files\\.example$\n"
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if cfg.APIBase != "https://central.example" || cfg.RateLimit != 5 {
			t.Fatalf("\nwanted:\nvalues from file\ngot:\n%+v", cfg)
		}
		if len(cfg.AuthScope) != 1 || cfg.AuthScope[0] != `files\.example$` {
			t.Fatalf("\nwanted:\none auth scope pattern\ngot:\n%v", cfg.AuthScope)
		}
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("MIRSAL_USER_AGENT", "mirsal-env")

		cfg, err := LoadConfig(t.TempDir())
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if cfg.UserAgent != "mirsal-env" {
			t.Fatalf("\nwanted:\nmirsal-env\ngot:\n%s", cfg.UserAgent)
		}
	})

	t.Run("rejects an invalid file", func(t *testing.T) {
		dir := t.TempDir()
		os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rate_limit: -1\n"), 0600)

		if _, err := LoadConfig(dir); err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestConfigSet(t *testing.T) {
	t.Run("persists the value", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if err := cfg.Set("log_level", "debug"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		reloaded, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if reloaded.LogLevel != "debug" {
			t.Fatalf("\nwanted:\ndebug\ngot:\n%s", reloaded.LogLevel)
		}
	})

	t.Run("fails without a directory", func(t *testing.T) {
		if err := DefaultConfig().Set("log_level", "debug"); err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		if got := cfg.SlogLevel(); got != want {
			t.Fatalf("\nwanted:\n%v for %q\ngot:\n%v", want, level, got)
		}
	}
}
