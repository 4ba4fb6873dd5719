package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from the environment over the values of Default. Variables
// that are unset keep their default.
type Config struct {
	Port           int        `envconfig:"PORT"`
	LogLevel       slog.Level `envconfig:"LOG_LEVEL"`
	BoardDir       string     `envconfig:"BOARD_DIR"`
	AllowedOrigins string     `envconfig:"ALLOWED_ORIGINS"`
	MDNSEnabled    bool       `envconfig:"MDNS_ENABLED"`
	ImportWorkers  int        `envconfig:"IMPORT_WORKERS"`

	// AccessSecret signs board-access tokens. Empty leaves every board open.
	AccessSecret string        `envconfig:"ACCESS_SECRET"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL"`

	Display     DisplayConfig     `envconfig:"DISPLAY"`
	Interaction InteractionConfig `envconfig:"INTERACTION"`
}

// DisplayConfig describes how the canvas background is painted. It is passed
// by value to whatever draws the background; nothing mutates it globally.
type DisplayConfig struct {
	BackgroundColor string  `envconfig:"BG_COLOR"`
	GridColor       string  `envconfig:"GRID_COLOR"`
	GridSize        float64 `envconfig:"GRID_SIZE"`
	GridEnabled     bool    `envconfig:"GRID_ENABLED"`
}

// InteractionConfig holds the tunables of the input controller.
type InteractionConfig struct {
	HandleMargin  float64 `envconfig:"HANDLE_MARGIN"`  // screen pixels
	CascadeOffset float64 `envconfig:"CASCADE_OFFSET"` // scene units
	ZoomStep      float64 `envconfig:"ZOOM_STEP"`
	MinZoom       float64 `envconfig:"MIN_ZOOM"`
	MaxZoom       float64 `envconfig:"MAX_ZOOM"`
}

func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting the environment.
func Default() *Config {
	return &Config{
		Port:           8080,
		LogLevel:       slog.LevelInfo,
		BoardDir:       "./data/boards",
		AllowedOrigins: "localhost:5173,localhost:3000",
		ImportWorkers:  4,
		TokenTTL:       24 * time.Hour,
		Display:        DefaultDisplay(),
		Interaction:    DefaultInteraction(),
	}
}

func DefaultDisplay() DisplayConfig {
	return DisplayConfig{
		BackgroundColor: "#282828",
		GridColor:       "#3c3c3c",
		GridSize:        40,
		GridEnabled:     true,
	}
}

func DefaultInteraction() InteractionConfig {
	return InteractionConfig{
		HandleMargin:  20,
		CascadeOffset: 20,
		ZoomStep:      1.1,
		MinZoom:       0.02,
		MaxZoom:       50,
	}
}

// Validate rejects values the canvas cannot work with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	in := c.Interaction
	check(c.Port >= 0 && c.Port <= 65535, "PORT %d out of range", c.Port)
	check(c.ImportWorkers >= 1, "IMPORT_WORKERS must be at least 1, got %d", c.ImportWorkers)
	check(c.TokenTTL > 0, "TOKEN_TTL must be positive, got %v", c.TokenTTL)
	check(c.Display.GridSize >= 0, "DISPLAY_GRID_SIZE must not be negative, got %v", c.Display.GridSize)
	check(in.ZoomStep > 1, "INTERACTION_ZOOM_STEP must be greater than 1, got %v", in.ZoomStep)
	check(in.MinZoom > 0, "INTERACTION_MIN_ZOOM must be positive, got %v", in.MinZoom)
	check(in.MaxZoom >= in.MinZoom, "INTERACTION_MAX_ZOOM %v is below INTERACTION_MIN_ZOOM %v", in.MaxZoom, in.MinZoom)
	check(in.HandleMargin >= 0, "INTERACTION_HANDLE_MARGIN must not be negative, got %v", in.HandleMargin)
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
