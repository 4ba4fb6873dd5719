package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	images, err := NewSampleBoard()
	if err != nil {
		t.Fatalf("NewSampleBoard: %v", err)
	}
	images[1].Rotation = 15

	data, err := Encode(images)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	board, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if board.Version != CurrentVersion {
		t.Errorf("version = %d, want %d", board.Version, CurrentVersion)
	}
	if len(board.Images) != len(images) {
		t.Fatalf("got %d images, want %d", len(board.Images), len(images))
	}
	for i, got := range board.Images {
		want := images[i]
		if got.X != want.X || got.Y != want.Y || got.Scale != want.Scale || got.Rotation != want.Rotation {
			t.Errorf("image %d transform = (%v,%v,%v,%v), want (%v,%v,%v,%v)",
				i, got.X, got.Y, got.Scale, got.Rotation, want.X, want.Y, want.Scale, want.Rotation)
		}
		if !bytes.Equal(got.Data, want.Data) {
			t.Errorf("image %d data differs", i)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, want := string(data), `{"version":2,"images":[]}`; got != want {
		t.Errorf("Encode(nil) = %s, want %s", got, want)
	}
}

func TestParseSkipsBadRecords(t *testing.T) {
	good := base64.StdEncoding.EncodeToString([]byte("first"))
	third := base64.StdEncoding.EncodeToString([]byte("third"))
	doc := `{"version":2,"images":[
		{"x":1,"y":2,"scale":1,"rotation":0,"data":"` + good + `"},
		{"x":5,"y":5,"scale":1,"rotation":0,"data":"!!not base64!!"},
		{"x":3,"y":4,"scale":2,"rotation":0,"data":"` + third + `"}
	]}`

	board, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(board.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(board.Images))
	}
	if string(board.Images[0].Data) != "first" || string(board.Images[1].Data) != "third" {
		t.Errorf("images out of order: %q, %q", board.Images[0].Data, board.Images[1].Data)
	}
	if len(board.Skipped) != 1 || board.Skipped[0].Index != 1 {
		t.Errorf("skipped = %+v, want index 1", board.Skipped)
	}
}

func TestParseDefaults(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte("img"))
	tests := []struct {
		name  string
		doc   string
		want  Image
		count int
	}{
		{
			name:  "missing transform fields",
			doc:   `{"version":2,"images":[{"data":"` + data + `"}]}`,
			want:  Image{X: 0, Y: 0, Scale: 1, Rotation: 0},
			count: 1,
		},
		{
			name:  "unknown fields ignored",
			doc:   `{"version":2,"extra":true,"images":[{"x":7,"y":8,"scale":0.5,"label":"a","data":"` + data + `"}]}`,
			want:  Image{X: 7, Y: 8, Scale: 0.5},
			count: 1,
		},
		{
			name:  "zero scale replaced",
			doc:   `{"version":2,"images":[{"x":1,"scale":0,"data":"` + data + `"}]}`,
			want:  Image{X: 1, Scale: 1},
			count: 1,
		},
		{
			name:  "unpadded base64",
			doc:   `{"version":2,"images":[{"data":"` + base64.RawStdEncoding.EncodeToString([]byte("img")) + `"}]}`,
			want:  Image{Scale: 1},
			count: 1,
		},
		{
			name:  "missing data skipped",
			doc:   `{"version":2,"images":[{"x":1}]}`,
			count: 0,
		},
		{
			name:  "missing images",
			doc:   `{"version":2}`,
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(board.Images) != tt.count {
				t.Fatalf("got %d images, want %d", len(board.Images), tt.count)
			}
			if tt.count == 0 {
				return
			}
			got := board.Images[0]
			if got.X != tt.want.X || got.Y != tt.want.Y || got.Scale != tt.want.Scale || got.Rotation != tt.want.Rotation {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if string(got.Data) != "img" {
				t.Errorf("data = %q", got.Data)
			}
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"version":`},
		{"top-level array", `[1,2,3]`},
		{"missing version", `{"images":[]}`},
		{"images not a list", `{"version":2,"images":"nope"}`},
		{"null document", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse error = %v, want *ParseError", err)
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sref")
	_, err := ReadFile(path)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("ReadFile error = %v, want *IOError", err)
	}
	if ioErr.Op != "load" || ioErr.Path != path {
		t.Errorf("IOError = %+v", ioErr)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist")
	}
}

func TestWriteFileThenRead(t *testing.T) {
	images, err := NewSampleBoard()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "board.sref")
	if err := WriteFile(path, images); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	board, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(board.Images) != len(images) {
		t.Fatalf("got %d images, want %d", len(board.Images), len(images))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestWriteFileFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.sref")
	original := []byte(`{"version":2,"images":[]}`)
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatal(err)
	}

	// A non-finite transform fails before anything touches the disk.
	bad := []Image{{X: 0, Y: 0, Scale: 1, Data: []byte("x")}}
	bad[0].X = math.Inf(1)
	if err := WriteFile(path, bad); err == nil {
		t.Fatal("WriteFile with non-finite transform should fail")
	}

	// Writing into a missing directory fails at the temp-file step.
	missing := filepath.Join(dir, "nope", "board.sref")
	err := WriteFile(missing, nil)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "save" {
		t.Fatalf("WriteFile error = %v, want save *IOError", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("original file modified: %s", got)
	}
}
