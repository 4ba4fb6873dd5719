package document

import "encoding/json"

// CurrentVersion is written into every saved board.
const CurrentVersion = 2

// File extensions accepted for board files. Both share one schema.
const (
	ExtBoard = ".sref"
	ExtJSON  = ".json"
)

// BoardDocument is the on-disk form of a board.
type BoardDocument struct {
	Version int           `json:"version"`
	Images  []ImageRecord `json:"images"`
}

// ImageRecord is one placed image. Data is the base64 of the original encoded
// file bytes, never a re-encoding.
type ImageRecord struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Data     string  `json:"data"`
}

// Image is a decoded record: transform plus raw image bytes.
type Image struct {
	X        float64
	Y        float64
	Scale    float64
	Rotation float64
	Data     []byte
}

// Board is the result of parsing a board document.
type Board struct {
	Version int
	Images  []Image
	Skipped []SkippedRecord
}

// SkippedRecord describes an image record dropped during parsing.
type SkippedRecord struct {
	Index int
	Err   error
}

// wire types used for decoding so absent fields can be told apart from zero values
type rawDocument struct {
	Version *int              `json:"version"`
	Images  []json.RawMessage `json:"images"`
}

type rawImage struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Scale    *float64 `json:"scale"`
	Rotation *float64 `json:"rotation"`
	Data     *string  `json:"data"`
}
