package item

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	perrors "github.com/matzehuels/panorama/pkg/errors"
)

// Format identifies a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// defaultWidth is used for entries that only give an aspect ratio.
const defaultWidth = 10.0

// manifest is the on-disk document shape shared by all encodings:
//
//	{"items": [{"id": "a", "url": "https://...", "width": 10, "height": 8}]}
//
// An entry may give "aspect" (width/height) instead of "height"; when width
// is also missing it defaults to 10 units.
type manifest struct {
	Items []entry `json:"items" toml:"items" yaml:"items"`
}

type entry struct {
	ID      string  `json:"id" toml:"id" yaml:"id"`
	URL     string  `json:"url" toml:"url" yaml:"url"`
	Width   float64 `json:"width" toml:"width" yaml:"width"`
	Height  float64 `json:"height" toml:"height" yaml:"height"`
	Aspect  float64 `json:"aspect" toml:"aspect" yaml:"aspect"`
	Alt     string  `json:"alt" toml:"alt" yaml:"alt"`
	Caption string  `json:"caption" toml:"caption" yaml:"caption"`
}

func (e entry) toItem() Item {
	it := Item{ID: e.ID, URL: e.URL, Width: e.Width, Height: e.Height, Alt: e.Alt, Caption: e.Caption}
	if it.Height == 0 && e.Aspect > 0 {
		if it.Width == 0 {
			it.Width = defaultWidth
		}
		it.Height = it.Width / e.Aspect
	}
	return it
}

// FormatFromPath infers the manifest format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidFormat, "unsupported manifest extension: %s", filepath.Ext(path))
}

// Read decodes a manifest from r and validates every item.
//
// The returned slice preserves document order, which is also the layout
// bias order. Read does not close r.
func Read(r io.Reader, format Format) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	case FormatTOML:
		_, err = toml.Decode(string(data), &m)
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidFormat, "unknown manifest format %q", format)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidManifest, err, "decode %s manifest", format)
	}

	items := make([]Item, len(m.Items))
	for i, e := range m.Items {
		items[i] = e.toItem()
	}
	if err := ValidateAll(items); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidManifest, err, "validate manifest")
	}
	return items, nil
}

// Import reads and validates the manifest file at path, choosing the
// decoder from its extension.
func Import(path string) ([]Item, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "manifest %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	items, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// WriteJSON encodes items as a JSON manifest that [Read] accepts.
func WriteJSON(w io.Writer, items []Item) error {
	out := struct {
		Items []Item `json:"items"`
	}{Items: items}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
