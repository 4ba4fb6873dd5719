package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestIssueAndValidate(t *testing.T) {
	s := NewService("secret", time.Hour)
	tok, err := s.IssueToken("board_a", "ana")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := s.ValidateToken(tok, "board_a")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "ana" || claims.Board != "board_a" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := s.ValidateToken(tok, "board_b"); !errors.Is(err, ErrWrongBoard) {
		t.Errorf("other board: err = %v, want ErrWrongBoard", err)
	}
	if _, err := NewService("other", time.Hour).ValidateToken(tok, "board_a"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestAnyBoardToken(t *testing.T) {
	s := NewService("secret", time.Hour)
	tok, err := s.IssueToken(AnyBoard, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b"} {
		if _, err := s.ValidateToken(tok, id); err != nil {
			t.Errorf("board %s: %v", id, err)
		}
	}
}

func TestExpiredToken(t *testing.T) {
	s := NewService("secret", time.Minute)
	start := time.Now()
	s.now = func() time.Time { return start }
	tok, err := s.IssueToken("b", "x")
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := s.ValidateToken(tok, "b"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestDisabledService(t *testing.T) {
	s := NewService("", 0)
	if s.Enabled() {
		t.Fatal("empty secret should disable the service")
	}
	if _, err := s.IssueToken("b", "x"); err == nil {
		t.Error("IssueToken should fail without a secret")
	}
}

func TestBoardAccess(t *testing.T) {
	s := NewService("secret", time.Hour)
	tok, _ := s.IssueToken("b1", "ana")

	var gotName string
	r := mux.NewRouter()
	r.Handle("/boards/{boardId}", s.BoardAccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = NameFromContext(r.Context())
	})))

	tests := []struct {
		name   string
		url    string
		header string
		want   int
	}{
		{"bearer", "/boards/b1", "Bearer " + tok, http.StatusOK},
		{"query", "/boards/b1?token=" + tok, "", http.StatusOK},
		{"missing", "/boards/b1", "", http.StatusUnauthorized},
		{"bad scheme", "/boards/b1", "Basic " + tok, http.StatusUnauthorized},
		{"other board", "/boards/b2", "Bearer " + tok, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName = ""
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && gotName != "ana" {
				t.Errorf("name = %q, want ana", gotName)
			}
		})
	}
}

func TestBoardAccessDisabledPassesThrough(t *testing.T) {
	s := NewService("", 0)
	called := false
	h := s.BoardAccess(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("disabled service should not block requests")
	}
}
