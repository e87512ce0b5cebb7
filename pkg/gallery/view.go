package gallery

import (
	"fmt"

	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/resolver"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// Status is the load state of an item's current image URL.
type Status int

const (
	StatusLoading Status = iota
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Transform places an item on screen: scale the item's pixel size by Scale,
// then move its top-left corner to (TranslateX, TranslateY).
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// ItemView is everything a renderer needs to draw one item.
type ItemView struct {
	Item      item.Item        `json:"item"`
	Placement layout.Placement `json:"placement"`
	Transform Transform        `json:"transform"`

	// Screen is the unpadded item rectangle in screen pixels.
	Screen viewport.Rect `json:"screen"`

	Visible  bool           `json:"visible"`
	Level    resolver.Level `json:"level"`
	URL      string         `json:"url"`
	Opacity  float64        `json:"opacity"`
	ZIndex   int            `json:"z_index"`
	Selected bool           `json:"selected,omitempty"`
	Status   Status         `json:"status"`
	Error    string         `json:"error,omitempty"`
}

// Contains reports whether the screen point (x, y) lies on the item.
func (v ItemView) Contains(x, y float64) bool {
	r := v.Screen
	return x >= r.Min.X && x <= r.Max.X && y >= r.Min.Y && y <= r.Max.Y
}

// Frame is one render pass. Items are in paint order: ascending ZIndex,
// ties in input order.
type Frame struct {
	Center   viewport.Point `json:"center"`
	Zoom     float64        `json:"zoom"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Panel    float64        `json:"panel,omitempty"`
	Selected string         `json:"selected,omitempty"`
	Visible  int            `json:"visible"`
	Items    []ItemView     `json:"items"`
}

// Find returns the view for an item ID.
func (f Frame) Find(id string) (ItemView, bool) {
	for _, v := range f.Items {
		if v.Item.ID == id {
			return v, true
		}
	}
	return ItemView{}, false
}
