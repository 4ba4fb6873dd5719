// Package boards serves the board index: listing, creating and deleting the
// boards kept by the collaboration hub.
package boards

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/refboard/refboard/internal/auth"
	"github.com/refboard/refboard/internal/collab"
	"github.com/refboard/refboard/internal/document"
	"github.com/refboard/refboard/internal/engine"
	"github.com/refboard/refboard/internal/typeid"
)

// Store is the part of the hub the index needs.
type Store interface {
	Boards(ctx context.Context) ([]collab.BoardInfo, error)
	Snapshot(ctx context.Context, boardID string) ([]document.Image, error)
	DeleteBoard(ctx context.Context, boardID string) error
}

type Handler struct {
	store  Store
	access *auth.Service
}

func NewHandler(store Store, access *auth.Service) *Handler {
	return &Handler{store: store, access: access}
}

type createResponse struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
}

type boardDetail struct {
	ID     string      `json:"id"`
	Images int         `json:"images"`
	Bounds engine.Rect `json:"bounds"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	boards, err := h.store.Boards(r.Context())
	if err != nil {
		slog.Error("list boards failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if boards == nil {
		boards = []collab.BoardInfo{}
	}
	writeJSON(w, http.StatusOK, boards)
}

// Create hands out a fresh board id. The board file appears once something
// is saved to it. With access control on, the response carries a token for
// the new board.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	resp := createResponse{ID: typeid.NewBoardID()}
	if h.access.Enabled() {
		tok, err := h.access.IssueToken(resp.ID, auth.NameFromContext(r.Context()))
		if err != nil {
			slog.Error("issue board token failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		resp.Token = tok
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	images, err := h.store.Snapshot(r.Context(), boardID)
	if err != nil {
		handleStoreError(w, err)
		return
	}

	detail := boardDetail{ID: boardID, Images: len(images)}
	if items, _ := engine.BuildItems(&document.Board{Version: document.CurrentVersion, Images: images}); len(items) > 0 {
		scene := engine.NewScene()
		scene.ReplaceAll(items)
		detail.Bounds = scene.ItemsBounds()
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBoard(r.Context(), mux.Vars(r)["boardId"]); err != nil {
		handleStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, collab.ErrBoardInUse):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "board is open by other clients"})
	default:
		slog.Error("board store error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
