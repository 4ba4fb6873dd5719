// Command boardtool inspects, builds and exports board files without a UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/auth"
	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/discovery"
	"github.com/refboard/refboard/internal/document"
	"github.com/refboard/refboard/internal/engine"
	"github.com/refboard/refboard/internal/export"
)

const usage = `usage: boardtool <command> [flags] [args]

commands:
  info <board>                      print the images of a board
  pack [-o out.sref] [-gap n] img…  lay images out in a row as a new board
  export -o out.png|out.pdf <board> render a board to PNG or PDF
  discover [-timeout 3s]            list refboard servers on the local network
  token [-name n] [-ttl d] <board>  sign an access token with ACCESS_SECRET ("*" for all boards)
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "boardtool:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return flag.ErrHelp
	}
	switch args[0] {
	case "info":
		return runInfo(args[1:], out)
	case "pack":
		return runPack(ctx, cfg, args[1:], out)
	case "export":
		return runExport(cfg, args[1:], out)
	case "discover":
		return runDiscover(ctx, args[1:], out)
	case "token":
		return runToken(cfg, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runInfo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("info: expected one board file")
	}

	board, err := document.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	items, _ := engine.BuildItems(board)

	fmt.Fprintf(out, "version %d, %d images", board.Version, len(items))
	if n := len(board.Skipped); n > 0 {
		fmt.Fprintf(out, " (%d unreadable records skipped)", n)
	}
	fmt.Fprintln(out)
	for i, it := range items {
		w, h := it.Size()
		p := it.Pos()
		fmt.Fprintf(out, "%3d  %-4s %5dx%-5d at (%.1f, %.1f) scale %.3f rot %.1f  %d bytes\n",
			i, it.Format(), w, h, p.X, p.Y, it.Scale(), it.Rotation(), len(it.ImageData()))
	}
	if len(items) > 0 {
		scene := engine.NewScene()
		scene.ReplaceAll(items)
		r := scene.ItemsBounds()
		fmt.Fprintf(out, "bounds (%.1f, %.1f) %.1f x %.1f\n", r.X, r.Y, r.Width, r.Height)
	}
	return nil
}

func runPack(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	output := fs.String("o", "board"+document.ExtBoard, "output board file")
	gap := fs.Float64("gap", cfg.Interaction.CascadeOffset, "space between images in scene units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("pack: no image files given")
	}

	var images []document.Image
	var errs []error
	x := 0.0
	for _, l := range asset.LoadFiles(ctx, fs.Args(), cfg.ImportWorkers) {
		if l.Err != nil {
			slog.Warn("skip image", "path", l.Path, "error", l.Err)
			errs = append(errs, l.Err)
			continue
		}
		w := float64(l.Info.Width)
		images = append(images, document.Image{X: x + w/2, Y: float64(l.Info.Height) / 2, Scale: 1, Data: l.Data})
		x += w + *gap
	}
	if len(images) == 0 {
		return errors.Join(append([]error{errors.New("pack: no readable images")}, errs...)...)
	}

	if err := document.WriteFile(*output, images); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s with %d images\n", *output, len(images))
	return nil
}

func runExport(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("o", "", "output file, .png or .pdf")
	scale := fs.Float64("scale", 1, "pixels per scene unit")
	padding := fs.Float64("padding", export.DefaultOptions().Padding, "margin around the images in scene units")
	noGrid := fs.Bool("no-grid", false, "omit the background grid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *output == "" {
		return errors.New("export: usage: export -o out.png|out.pdf <board>")
	}

	board, err := document.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	display := cfg.Display
	if *noGrid {
		display.GridEnabled = false
	}
	opts := export.DefaultOptions()
	opts.PixelScale = *scale
	opts.Padding = *padding

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(*output)) {
	case ".png":
		err = export.RenderPNG(f, board.Images, display, opts)
	case ".pdf":
		err = export.WritePDF(f, board.Images, display, opts)
	default:
		err = fmt.Errorf("export: unsupported output type %q", filepath.Ext(*output))
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(*output)
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", *output)
	return nil
}

func runDiscover(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 3*time.Second, "how long to listen for answers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	peers, err := discovery.Browse(ctx, *timeout)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		fmt.Fprintln(out, "no servers found")
		return nil
	}
	for _, p := range peers {
		fmt.Fprintf(out, "%-24s %-21s %s\n", p.Instance, p.Addr, p.Host)
	}
	return nil
}

func runToken(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	name := fs.String("name", "", "name shown to other collaborators")
	ttl := fs.Duration("ttl", cfg.TokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("token: expected one board id")
	}

	tok, err := auth.NewService(cfg.AccessSecret, *ttl).IssueToken(fs.Arg(0), *name)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}
