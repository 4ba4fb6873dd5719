package typeid

import (
	"strings"
	"testing"
)

func TestNewImageID(t *testing.T) {
	id := NewImageID()
	if !strings.HasPrefix(id, PrefixImage+"_") {
		t.Fatalf("NewImageID() = %q, want prefix %q", id, PrefixImage+"_")
	}
	if err := Validate(id, PrefixImage); err != nil {
		t.Errorf("Validate(%q) = %v", id, err)
	}
	if other := NewImageID(); other == id {
		t.Errorf("two calls returned the same id %q", id)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		prefix  string
		wantErr bool
	}{
		{"board ok", NewBoardID(), PrefixBoard, false},
		{"wrong prefix", NewBoardID(), PrefixImage, true},
		{"garbage", "not-an-id", PrefixBoard, true},
		{"empty", "", PrefixBoard, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q, %q) error = %v, wantErr %v", tt.id, tt.prefix, err, tt.wantErr)
			}
		})
	}
}
