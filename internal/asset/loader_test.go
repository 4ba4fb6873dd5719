package asset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFilesKeepsOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good1 := filepath.Join(dir, "a.png")
	bad := filepath.Join(dir, "b.png")
	good2 := filepath.Join(dir, "c.jpg")
	missing := filepath.Join(dir, "missing.png")

	if err := os.WriteFile(good1, pngBytes(t, 3, 3), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(good2, jpegBytes(t, 8, 8), 0o644); err != nil {
		t.Fatal(err)
	}

	paths := []string{good1, bad, good2, missing}
	results := LoadFiles(context.Background(), paths, 2)
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}

	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("results[%d].Path = %q, want %q", i, res.Path, paths[i])
		}
	}
	if results[0].Err != nil || results[0].Info.Width != 3 {
		t.Errorf("results[0] = %+v, want decoded 3px png", results[0])
	}
	if results[1].Err == nil {
		t.Error("results[1].Err = nil, want decode error")
	}
	if results[2].Err != nil || results[2].Info.Format != "jpeg" {
		t.Errorf("results[2] = %+v, want decoded jpeg", results[2])
	}
	if results[3].Err == nil {
		t.Error("results[3].Err = nil, want read error")
	}
}

func TestLoadFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	if err := os.WriteFile(p, pngBytes(t, 2, 2), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := LoadFiles(ctx, []string{p}, 1)
	if results[0].Err == nil {
		t.Error("load with cancelled context succeeded, want error")
	}
}

func TestPathsFromText(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b b.png")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	text := strings.Join([]string{
		"  " + a + "  ",
		`"` + b + `"`,
		"",
		filepath.Join(dir, "missing.png"),
		dir, // directories are skipped
	}, "\n")

	got := PathsFromText(text)
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("PathsFromText() = %q, want [%q %q]", got, a, b)
	}
}

func TestIsImageFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.PNG":     true,
		"b.jpeg":    true,
		"c.webp":    true,
		"d.txt":     false,
		"noext":     false,
		"e.sref":    false,
		"dir/f.Bmp": true,
	} {
		if got := IsImageFile(path); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", path, got, want)
		}
	}
}
