package item

import (
	"testing"

	perrors "github.com/matzehuels/panorama/pkg/errors"
)

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{"valid", Item{ID: "a", URL: "https://cdn.example.com/a.jpg", Width: 10, Height: 8}, false},
		{"relative url", Item{ID: "a", URL: "/img/a.jpg", Width: 10, Height: 8}, false},
		{"missing id", Item{URL: "https://cdn.example.com/a.jpg", Width: 10, Height: 8}, true},
		{"bad url", Item{ID: "a", URL: "ftp://x/a.jpg", Width: 10, Height: 8}, true},
		{"zero height", Item{ID: "a", URL: "/a.jpg", Width: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && perrors.GetCode(err) == "" {
				t.Errorf("Validate() returned uncoded error: %v", err)
			}
		})
	}
}

func TestValidateAllRejectsDuplicates(t *testing.T) {
	items := []Item{
		{ID: "a", URL: "/a.jpg", Width: 1, Height: 1},
		{ID: "a", URL: "/b.jpg", Width: 1, Height: 1},
	}
	if err := ValidateAll(items); !perrors.Is(err, perrors.ErrCodeInvalidItem) {
		t.Fatalf("ValidateAll() = %v, want INVALID_ITEM", err)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		item Item
		want string
	}{
		{Item{ID: "a", Alt: "alt", Caption: "cap"}, "cap"},
		{Item{ID: "a", Alt: "alt"}, "alt"},
		{Item{ID: "a"}, "a"},
	}
	for _, tt := range tests {
		if got := tt.item.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestIndex(t *testing.T) {
	idx := Index([]Item{{ID: "x"}, {ID: "y"}})
	if idx["x"] != 0 || idx["y"] != 1 {
		t.Errorf("Index() = %v", idx)
	}
}
