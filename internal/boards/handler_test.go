package boards

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/refboard/refboard/internal/auth"
	"github.com/refboard/refboard/internal/collab"
	"github.com/refboard/refboard/internal/document"
)

type fakeStore struct {
	boards map[string][]document.Image
	inUse  map[string]bool
}

func (f *fakeStore) Boards(context.Context) ([]collab.BoardInfo, error) {
	var out []collab.BoardInfo
	for id := range f.boards {
		out = append(out, collab.BoardInfo{ID: id})
	}
	return out, nil
}

func (f *fakeStore) Snapshot(_ context.Context, id string) ([]document.Image, error) {
	images, ok := f.boards[id]
	if !ok {
		return nil, collab.ErrBoardNotFound
	}
	return images, nil
}

func (f *fakeStore) DeleteBoard(_ context.Context, id string) error {
	if f.inUse[id] {
		return collab.ErrBoardInUse
	}
	if _, ok := f.boards[id]; !ok {
		return collab.ErrBoardNotFound
	}
	delete(f.boards, id)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newRouter(store Store, access *auth.Service) *mux.Router {
	h := NewHandler(store, access)
	r := mux.NewRouter()
	r.HandleFunc("/boards", h.List).Methods("GET")
	r.HandleFunc("/boards", h.Create).Methods("POST")
	r.HandleFunc("/boards/{boardId}", h.Get).Methods("GET")
	r.HandleFunc("/boards/{boardId}", h.Delete).Methods("DELETE")
	return r
}

func do(r http.Handler, method, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, url, nil))
	return rec
}

func TestListAndGet(t *testing.T) {
	store := &fakeStore{boards: map[string][]document.Image{
		"board_a": {{X: 10, Y: 20, Scale: 1, Data: pngBytes(t, 40, 20)}},
	}}
	r := newRouter(store, auth.NewService("", 0))

	rec := do(r, http.MethodGet, "/boards")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"board_a"`) {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}

	rec = do(r, http.MethodGet, "/boards/board_a")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body)
	}
	var detail boardDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.Images != 1 || detail.Bounds.Width != 40 || detail.Bounds.X != -10 {
		t.Errorf("detail = %+v", detail)
	}

	if rec := do(r, http.MethodGet, "/boards/board_none"); rec.Code != http.StatusNotFound {
		t.Errorf("missing board: status %d", rec.Code)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	r := newRouter(&fakeStore{}, auth.NewService("", 0))
	rec := do(r, http.MethodGet, "/boards")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestCreate(t *testing.T) {
	r := newRouter(&fakeStore{}, auth.NewService("", 0))
	rec := do(r, http.MethodPost, "/boards")
	var resp createResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if rec.Code != http.StatusCreated || !strings.HasPrefix(resp.ID, "board_") || resp.Token != "" {
		t.Fatalf("create: %d %+v", rec.Code, resp)
	}

	access := auth.NewService("secret", time.Hour)
	r = newRouter(&fakeStore{}, access)
	rec = do(r, http.MethodPost, "/boards")
	resp = createResponse{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if _, err := access.ValidateToken(resp.Token, resp.ID); err != nil {
		t.Errorf("token for new board does not validate: %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := &fakeStore{
		boards: map[string][]document.Image{"board_a": nil, "board_b": nil},
		inUse:  map[string]bool{"board_b": true},
	}
	r := newRouter(store, auth.NewService("", 0))

	tests := []struct {
		id   string
		want int
	}{
		{"board_a", http.StatusNoContent},
		{"board_a", http.StatusNotFound},
		{"board_b", http.StatusConflict},
	}
	for _, tt := range tests {
		if rec := do(r, http.MethodDelete, "/boards/"+tt.id); rec.Code != tt.want {
			t.Errorf("DELETE %s: status %d, want %d", tt.id, rec.Code, tt.want)
		}
	}
}
