package asset

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const maxUploadSize = 32 << 20 // 32MB

// Importer places validated image bytes onto a board.
type Importer interface {
	ImportImage(ctx context.Context, boardID string, data []byte, x, y float64) (string, error)
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves image upload into a board.
type Handler struct {
	importer Importer
}

func NewHandler(importer Importer) *Handler {
	return &Handler{importer: importer}
}

// Upload handles POST /boards/{boardId}/images (multipart form with a "file"
// field and optional "x", "y" scene coordinates).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	boardID := mux.Vars(r)["boardId"]

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 32MB)"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read file"})
		return
	}

	// Stored bytes are kept as uploaded; decoding only validates them.
	info, err := Probe(data)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	x, _ := strconv.ParseFloat(r.FormValue("x"), 64)
	y, _ := strconv.ParseFloat(r.FormValue("y"), 64)

	id, err := h.importer.ImportImage(r.Context(), boardID, data, x, y)
	if err != nil {
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		slog.Error("import image", "error", err, "board", boardID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to import image"})
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		ID:     id,
		Width:  info.Width,
		Height: info.Height,
		Type:   info.Format,
		Name:   header.Filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
