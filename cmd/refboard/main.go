// Command refboard is the desktop reference board.
package main

import (
	"flag"
	"log/slog"
	"os"

	"fyne.io/fyne/v2/app"

	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/ui"
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("load config, using defaults", "error", err)
		cfg = config.Default()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ui.Run(app.NewWithID("io.github.refboard"), cfg, flag.Arg(0))
}
