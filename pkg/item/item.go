package item

import (
	perrors "github.com/matzehuels/panorama/pkg/errors"
)

// Item is a single image on the canvas as supplied by the content host.
//
// Width and Height are intrinsic dimensions in physical layout units, not
// pixels; the gallery converts them with its unit-to-pixel factor. An Item is
// treated as immutable once handed to a render pass.
type Item struct {
	ID      string  `json:"id" toml:"id" yaml:"id"`
	URL     string  `json:"url" toml:"url" yaml:"url"`
	Width   float64 `json:"width" toml:"width" yaml:"width"`
	Height  float64 `json:"height" toml:"height" yaml:"height"`
	Alt     string  `json:"alt,omitempty" toml:"alt" yaml:"alt,omitempty"`
	Caption string  `json:"caption,omitempty" toml:"caption" yaml:"caption,omitempty"`
}

// Validate checks the item's ID, source URL and dimensions.
func (it Item) Validate() error {
	if err := perrors.ValidateItemID(it.ID); err != nil {
		return err
	}
	if err := perrors.ValidateURL(it.URL); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidItem, err, "item %s", it.ID)
	}
	if err := perrors.ValidateDimensions(it.Width, it.Height); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidItem, err, "item %s", it.ID)
	}
	return nil
}

// Label returns the caption, falling back to alt text and then the ID.
func (it Item) Label() string {
	switch {
	case it.Caption != "":
		return it.Caption
	case it.Alt != "":
		return it.Alt
	}
	return it.ID
}

// Aspect returns width divided by height.
func (it Item) Aspect() float64 {
	if it.Height == 0 {
		return 0
	}
	return it.Width / it.Height
}

// ValidateAll validates every item and rejects duplicate IDs.
func ValidateAll(items []Item) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return perrors.New(perrors.ErrCodeInvalidItem, "duplicate item id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// Index returns a map from item ID to its position in items.
func Index(items []Item) map[string]int {
	idx := make(map[string]int, len(items))
	for i, it := range items {
		idx[it.ID] = i
	}
	return idx
}
