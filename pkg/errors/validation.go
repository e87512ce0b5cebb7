package errors

import (
	"math"
	"net/url"
	"strings"
	"unicode"
)

// maxIDLength bounds item identifiers; they end up in SVG ids, URLs and
// terminal cells.
const maxIDLength = 256

// ValidateItemID validates an item identifier.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or whitespace
//   - Maximum length of 256 characters
func ValidateItemID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidItem, "item id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidItem, "item id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidItem, "item id %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateDimensions checks that an item's physical width and height are
// finite and strictly positive.
func ValidateDimensions(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidItem, "dimensions must be finite, got %vx%v", width, height)
		}
		if v <= 0 {
			return New(ErrCodeInvalidItem, "dimensions must be positive, got %vx%v", width, height)
		}
	}
	return nil
}

// ValidateURL validates an image source URL.
// It accepts absolute http(s) URLs and root-relative paths ("/img/a.jpg"),
// which is what image CDNs and local servers hand out.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidURL, "URL contains control characters")
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "parse URL %q", rawURL)
	}

	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		if u.Host == "" {
			return New(ErrCodeInvalidURL, "URL %q has no host", rawURL)
		}
	case u.Scheme == "" && strings.HasPrefix(u.Path, "/"):
		// root-relative
	default:
		return New(ErrCodeInvalidURL, "URL must use http or https scheme or be root-relative: %q", rawURL)
	}
	return nil
}

// ValidateWidth checks that a requested pixel width is usable as a resize
// parameter.
func ValidateWidth(width int) error {
	if width <= 0 {
		return New(ErrCodeInvalidWidth, "width must be positive, got %d", width)
	}
	return nil
}
