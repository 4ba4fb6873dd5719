package export

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/document"
)

// Snapshotter returns a consistent copy of a board's images.
type Snapshotter interface {
	Snapshot(ctx context.Context, boardID string) ([]document.Image, error)
}

type Handler struct {
	boards  Snapshotter
	display config.DisplayConfig
}

func NewHandler(boards Snapshotter, display config.DisplayConfig) *Handler {
	return &Handler{boards: boards, display: display}
}

// ExportBoard handles GET /boards/{boardId}/export.{format}. Optional query
// parameters: scale (pixels per scene unit) and padding (scene units).
func (h *Handler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	boardID := vars["boardId"]
	format := vars["format"]
	if format != "png" && format != "pdf" {
		http.Error(w, "invalid format: must be png or pdf", http.StatusBadRequest)
		return
	}

	opts := DefaultOptions()
	if v, err := strconv.ParseFloat(r.URL.Query().Get("scale"), 64); err == nil && v > 0 && v <= 8 {
		opts.PixelScale = v
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("padding"), 64); err == nil && v >= 0 {
		opts.Padding = v
	}

	images, err := h.boards.Snapshot(r.Context(), boardID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		slog.Error("export snapshot", "board", boardID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	contentType := "image/png"
	if format == "pdf" {
		contentType = "application/pdf"
		err = WritePDF(&buf, images, h.display, opts)
	} else {
		err = RenderPNG(&buf, images, h.display, opts)
	}
	if errors.Is(err, ErrEmptyBoard) {
		http.Error(w, "board is empty", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("export board", "board", boardID, "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+boardID+"."+format+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
