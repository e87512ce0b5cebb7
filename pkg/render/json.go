package render

import (
	"encoding/json"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/layout"
)

// RenderJSON encodes a frame as indented JSON.
func RenderJSON(f gallery.Frame) ([]byte, error) {
	return marshal(f)
}

// LayoutJSON encodes a layout as indented JSON.
func LayoutJSON(l layout.Layout) ([]byte, error) {
	return marshal(l)
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json")
	}
	return append(data, '\n'), nil
}
