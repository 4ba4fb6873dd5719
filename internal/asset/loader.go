package asset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Extensions lists the file extensions offered by open-image dialogs.
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".webp", ".tif", ".tiff"}

// Loaded is the outcome of reading and validating one file.
type Loaded struct {
	Path string
	Data []byte
	Info Info
	Err  error
}

// LoadFiles reads and validates every path with at most workers files in flight.
// Results keep the order of paths; a failure is recorded on its entry and never
// cancels the others.
func LoadFiles(ctx context.Context, paths []string, workers int) []Loaded {
	results := make([]Loaded, len(paths))
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = loadOne(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func loadOne(ctx context.Context, path string) Loaded {
	res := Loaded{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return res
	}

	info, err := Probe(data)
	if err != nil {
		slog.Warn("skip undecodable file", "path", path, "error", err)
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}

	res.Data = data
	res.Info = info
	return res
}

// PathsFromText extracts file paths from pasted text: one per line, surrounding
// whitespace and double quotes trimmed, keeping only existing regular files.
func PathsFromText(text string) []string {
	var paths []string
	for _, line := range strings.Split(text, "\n") {
		p := strings.Trim(strings.TrimSpace(line), `"`)
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}

// IsImageFile reports whether the path has one of the supported extensions.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
