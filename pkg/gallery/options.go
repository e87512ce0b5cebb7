package gallery

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panorama/pkg/layout"
)

// Default option values.
const (
	DefaultUnitToPixel     = 10.0
	DefaultParallax        = 0.05
	DefaultOverscan        = 0.15
	DefaultDPR             = 1.0
	DefaultFitMargin       = 0.1
	DefaultPanelWidth      = 400.0
	DefaultPanelBreakpoint = 1024.0
	DefaultTapDebounce     = 250 * time.Millisecond
)

// Options configures a Gallery. Zero values select the defaults above.
type Options struct {
	// UnitToPixel converts layout units to world pixels at zoom 1.
	UnitToPixel float64 `json:"unit_to_pixel,omitempty" toml:"unit_to_pixel"`

	// Parallax scales the extra offset applied to each item relative to
	// the camera center.
	Parallax        float64 `json:"parallax,omitempty" toml:"parallax"`
	DisableParallax bool    `json:"disable_parallax,omitempty" toml:"disable_parallax"`

	// Overscan grows the viewport by this fraction on every side before
	// culling.
	Overscan float64 `json:"overscan,omitempty" toml:"overscan"`

	DevicePixelRatio float64 `json:"device_pixel_ratio,omitempty" toml:"device_pixel_ratio"`

	// FitMargin is the fraction of the free viewport left empty around a
	// selected item.
	FitMargin float64 `json:"fit_margin,omitempty" toml:"fit_margin"`

	// PanelWidth is reserved on the right of viewports at least
	// PanelBreakpoint wide while an item is selected.
	PanelWidth      float64 `json:"panel_width,omitempty" toml:"panel_width"`
	PanelBreakpoint float64 `json:"panel_breakpoint,omitempty" toml:"panel_breakpoint"`

	// TapDebounce is how long after a manual camera change an activation
	// is still treated as the end of a drag.
	TapDebounce time.Duration `json:"tap_debounce,omitempty" toml:"tap_debounce"`

	// Runtime options (not serialized)
	Layout []layout.Option  `json:"-" toml:"-"`
	Clock  func() time.Time `json:"-" toml:"-"`
	Logger *log.Logger      `json:"-" toml:"-"`
}

// WithDefaults returns a copy of o with zero fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.UnitToPixel <= 0 {
		o.UnitToPixel = DefaultUnitToPixel
	}
	if o.DisableParallax {
		o.Parallax = 0
	} else if o.Parallax == 0 {
		o.Parallax = DefaultParallax
	}
	if o.Overscan <= 0 {
		o.Overscan = DefaultOverscan
	}
	if o.DevicePixelRatio <= 0 {
		o.DevicePixelRatio = DefaultDPR
	}
	if o.FitMargin <= 0 || o.FitMargin >= 1 {
		o.FitMargin = DefaultFitMargin
	}
	if o.PanelWidth <= 0 {
		o.PanelWidth = DefaultPanelWidth
	}
	if o.PanelBreakpoint <= 0 {
		o.PanelBreakpoint = DefaultPanelBreakpoint
	}
	if o.TapDebounce <= 0 {
		o.TapDebounce = DefaultTapDebounce
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}
