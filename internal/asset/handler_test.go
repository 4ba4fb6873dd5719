package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

type fakeImporter struct {
	boardID string
	data    []byte
	x, y    float64
}

func (f *fakeImporter) ImportImage(_ context.Context, boardID string, data []byte, x, y float64) (string, error) {
	f.boardID, f.data, f.x, f.y = boardID, data, x, y
	return "img_test", nil
}

func uploadRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "pic.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/boards/board_x/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return mux.SetURLVars(req, map[string]string{"boardId": "board_x"})
}

func TestUpload(t *testing.T) {
	imp := &fakeImporter{}
	h := NewHandler(imp)
	data := pngBytes(t, 10, 6)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, map[string]string{"x": "12.5", "y": "-3"}, data))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "img_test" || resp.Width != 10 || resp.Height != 6 || resp.Type != "png" {
		t.Errorf("response = %+v", resp)
	}
	if imp.boardID != "board_x" || imp.x != 12.5 || imp.y != -3 {
		t.Errorf("importer got board=%q x=%v y=%v", imp.boardID, imp.x, imp.y)
	}
	if !bytes.Equal(imp.data, data) {
		t.Error("importer received bytes that differ from the upload")
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name string
		file []byte
		want int
	}{
		{"missing file", nil, http.StatusBadRequest},
		{"not an image", []byte("hello"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := &fakeImporter{}
			rec := httptest.NewRecorder()
			NewHandler(imp).Upload(rec, uploadRequest(t, nil, tt.file))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if imp.data != nil {
				t.Error("importer was called for a rejected upload")
			}
		})
	}
}
