package document

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
)

// Encode serializes images, in z-order, into a version 2 board document.
func Encode(images []Image) ([]byte, error) {
	doc := BoardDocument{
		Version: CurrentVersion,
		Images:  make([]ImageRecord, 0, len(images)),
	}
	for i, img := range images {
		if !finite(img.X, img.Y, img.Scale, img.Rotation) {
			return nil, fmt.Errorf("image %d: non-finite transform", i)
		}
		doc.Images = append(doc.Images, ImageRecord{
			X:        img.X,
			Y:        img.Y,
			Scale:    img.Scale,
			Rotation: img.Rotation,
			Data:     base64.StdEncoding.EncodeToString(img.Data),
		})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal board: %w", err)
	}
	return data, nil
}

// Parse decodes a board document. Structural problems return a *ParseError;
// individual image records that cannot be read are skipped, logged and listed
// in Board.Skipped.
func Parse(data []byte) (*Board, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	if raw.Version == nil {
		return nil, &ParseError{Err: ErrMissingVersion}
	}

	board := &Board{
		Version: *raw.Version,
		Images:  make([]Image, 0, len(raw.Images)),
	}
	for i, msg := range raw.Images {
		img, err := parseImage(msg)
		if err != nil {
			slog.Warn("skip image record", "index", i, "error", err)
			board.Skipped = append(board.Skipped, SkippedRecord{Index: i, Err: err})
			continue
		}
		board.Images = append(board.Images, img)
	}
	return board, nil
}

func parseImage(msg json.RawMessage) (Image, error) {
	var rec rawImage
	if err := json.Unmarshal(msg, &rec); err != nil {
		return Image{}, fmt.Errorf("invalid record: %w", err)
	}
	if rec.Data == nil || *rec.Data == "" {
		return Image{}, ErrMissingData
	}

	data, err := decodeBase64(*rec.Data)
	if err != nil {
		return Image{}, fmt.Errorf("invalid image data: %w", err)
	}

	img := Image{Scale: 1.0, Data: data}
	if rec.X != nil {
		img.X = *rec.X
	}
	if rec.Y != nil {
		img.Y = *rec.Y
	}
	if rec.Rotation != nil {
		img.Rotation = *rec.Rotation
	}
	if rec.Scale != nil {
		if *rec.Scale > 0 {
			img.Scale = *rec.Scale
		} else {
			slog.Warn("non-positive scale replaced with 1", "scale", *rec.Scale)
		}
	}
	return img, nil
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// ReadFile loads and parses the board file at path.
func ReadFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "load", Path: path, Err: err}
	}
	return Parse(data)
}

// WriteFile encodes images and writes them to path atomically: the document is
// written to a temporary file in the same directory and renamed over path, so
// a failed save leaves any existing file untouched.
func WriteFile(path string, images []Image) error {
	data, err := Encode(images)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return &IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
