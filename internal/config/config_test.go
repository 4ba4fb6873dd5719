package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg.Port != want.Port {
		t.Errorf("Port = %d, want %d", cfg.Port, want.Port)
	}
	if cfg.Display != want.Display {
		t.Errorf("Display = %+v, want %+v", cfg.Display, want.Display)
	}
	if cfg.Interaction != want.Interaction {
		t.Errorf("Interaction = %+v, want %+v", cfg.Interaction, want.Interaction)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.TokenTTL != want.TokenTTL || cfg.AccessSecret != "" {
		t.Errorf("TokenTTL = %v, AccessSecret = %q", cfg.TokenTTL, cfg.AccessSecret)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISPLAY_GRID_ENABLED", "false")
	t.Setenv("DISPLAY_BG_COLOR", "#101010")
	t.Setenv("INTERACTION_ZOOM_STEP", "1.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.Display.GridEnabled {
		t.Error("Display.GridEnabled = true, want false")
	}
	if cfg.Display.BackgroundColor != "#101010" {
		t.Errorf("Display.BackgroundColor = %q", cfg.Display.BackgroundColor)
	}
	if cfg.Interaction.ZoomStep != 1.25 {
		t.Errorf("Interaction.ZoomStep = %v, want 1.25", cfg.Interaction.ZoomStep)
	}
}

func TestLoadRejectsBadValue(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("Load() with bad PORT succeeded, want error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"INTERACTION_ZOOM_STEP", "0"},
		{"INTERACTION_ZOOM_STEP", "1"},
		{"INTERACTION_MIN_ZOOM", "0"},
		{"INTERACTION_MAX_ZOOM", "0.01"},
		{"INTERACTION_HANDLE_MARGIN", "-1"},
		{"DISPLAY_GRID_SIZE", "-5"},
		{"IMPORT_WORKERS", "0"},
		{"PORT", "70000"},
		{"TOKEN_TTL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadKeepsDefaultsForUnsetFields(t *testing.T) {
	t.Setenv("INTERACTION_MAX_ZOOM", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultInteraction()
	want.MaxZoom = 10
	if cfg.Interaction != want {
		t.Errorf("Interaction = %+v, want %+v", cfg.Interaction, want)
	}
	if !cfg.Display.GridEnabled {
		t.Error("Display.GridEnabled = false, want default true")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}
