package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panorama/pkg/cache"
	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/session"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// Config is the TOML configuration file:
//
//	[layout]
//	radius_x = 60
//	radius_y = 40
//
//	[viewport]
//	width = 1280
//	height = 800
//	duration = "500ms"
//
//	[gallery]
//	parallax = 0.05
//	panel_width = 400
//
//	[server]
//	addr = ":8080"
//	ttl = "30m"
type Config struct {
	Layout   LayoutConfig    `toml:"layout"`
	Viewport ViewportConfig  `toml:"viewport"`
	Gallery  gallery.Options `toml:"gallery"`
	Server   ServerConfig    `toml:"server"`
}

// LayoutConfig mirrors the layout options.
type LayoutConfig struct {
	RadiusX     float64 `toml:"radius_x"`
	RadiusY     float64 `toml:"radius_y"`
	Padding     float64 `toml:"padding"`
	GrowX       float64 `toml:"grow_x"`
	GrowY       float64 `toml:"grow_y"`
	MaxAttempts int     `toml:"max_attempts"`
}

// ViewportConfig sizes the camera surface and tunes its gestures.
type ViewportConfig struct {
	Width     float64       `toml:"width"`
	Height    float64       `toml:"height"`
	MinZoom   float64       `toml:"min_zoom"`
	MaxZoom   float64       `toml:"max_zoom"`
	Duration  time.Duration `toml:"duration"`
	DeadZone  float64       `toml:"dead_zone"`
	WheelStep float64       `toml:"wheel_step"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string        `toml:"addr"`
	TTL  time.Duration `toml:"ttl"`
}

const (
	defaultWidth  = 1280.0
	defaultHeight = 800.0
	defaultAddr   = ":8080"
)

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	l := &c.Layout
	if l.RadiusX <= 0 {
		l.RadiusX = layout.DefaultRadiusX
	}
	if l.RadiusY <= 0 {
		l.RadiusY = layout.DefaultRadiusY
	}
	if l.Padding < 0 {
		l.Padding = 0
	} else if l.Padding == 0 {
		l.Padding = layout.DefaultPadding
	}
	if l.GrowX <= 0 {
		l.GrowX = layout.DefaultGrowX
	}
	if l.GrowY <= 0 {
		l.GrowY = layout.DefaultGrowY
	}
	if l.MaxAttempts <= 0 {
		l.MaxAttempts = layout.DefaultMaxAttempts
	}

	v := &c.Viewport
	if v.Width <= 0 {
		v.Width = defaultWidth
	}
	if v.Height <= 0 {
		v.Height = defaultHeight
	}
	if v.MinZoom <= 0 {
		v.MinZoom = viewport.DefaultMinZoom
	}
	if v.MaxZoom <= 0 {
		v.MaxZoom = viewport.DefaultMaxZoom
	}
	if v.Duration <= 0 {
		v.Duration = viewport.DefaultDuration
	}
	if v.DeadZone <= 0 {
		v.DeadZone = viewport.DefaultDeadZone
	}
	if v.WheelStep <= 1 {
		v.WheelStep = viewport.DefaultWheelStep
	}

	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.TTL <= 0 {
		c.Server.TTL = session.DefaultTTL
	}
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Viewport.MinZoom > c.Viewport.MaxZoom {
		return errors.New(errors.ErrCodeInvalidConfig, "viewport.min_zoom %v exceeds max_zoom %v",
			c.Viewport.MinZoom, c.Viewport.MaxZoom)
	}
	if c.Gallery.FitMargin < 0 || c.Gallery.FitMargin >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "gallery.fit_margin must be in [0, 1), got %v", c.Gallery.FitMargin)
	}
	return nil
}

// loadConfig reads path (when set), applies defaults and validates.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
		}
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

// LayoutOptions returns the layout options for this config.
func (c *Config) LayoutOptions() []layout.Option {
	l := c.Layout
	return []layout.Option{
		layout.WithRadii(l.RadiusX, l.RadiusY),
		layout.WithPadding(l.Padding),
		layout.WithGrowth(l.GrowX, l.GrowY),
		layout.WithMaxAttempts(l.MaxAttempts),
	}
}

// LayoutKey returns the cache key parameters for the layout options.
func (c *Config) LayoutKey() cache.LayoutKeyOpts {
	l := c.Layout
	return cache.LayoutKeyOpts{
		RadiusX:     l.RadiusX,
		RadiusY:     l.RadiusY,
		Padding:     l.Padding,
		GrowX:       l.GrowX,
		GrowY:       l.GrowY,
		MaxAttempts: l.MaxAttempts,
	}
}

// ViewportOptions returns controller options for this config.
func (c *Config) ViewportOptions() []viewport.Option {
	v := c.Viewport
	return []viewport.Option{
		viewport.WithZoomLimits(v.MinZoom, v.MaxZoom),
		viewport.WithDuration(v.Duration),
		viewport.WithDeadZone(v.DeadZone),
		viewport.WithWheelStep(v.WheelStep),
	}
}

// GalleryOptions returns gallery options with the layout options attached.
func (c *Config) GalleryOptions() gallery.Options {
	o := c.Gallery
	o.Layout = c.LayoutOptions()
	return o
}

// =============================================================================
// Flag overrides
// =============================================================================

// addLayoutFlags registers flags that override [layout].
func addLayoutFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("radius-x", layout.DefaultRadiusX, "base horizontal ellipse radius (layout units)")
	f.Float64("radius-y", layout.DefaultRadiusY, "base vertical ellipse radius (layout units)")
	f.Float64("padding", layout.DefaultPadding, "collision margin around each item (layout units)")
	f.Int("max-attempts", layout.DefaultMaxAttempts, "placement attempts per item")
}

// addViewFlags registers flags that override [viewport] and [gallery].
func addViewFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("width", defaultWidth, "viewport width in pixels")
	f.Float64("height", defaultHeight, "viewport height in pixels")
	f.Float64("dpr", gallery.DefaultDPR, "device pixel ratio")
	f.Bool("no-parallax", false, "disable the parallax offset")
}

// applyFlags copies explicitly set flags over the file values.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	overrideFloat(cmd, "radius-x", &cfg.Layout.RadiusX)
	overrideFloat(cmd, "radius-y", &cfg.Layout.RadiusY)
	overrideFloat(cmd, "padding", &cfg.Layout.Padding)
	overrideInt(cmd, "max-attempts", &cfg.Layout.MaxAttempts)
	overrideFloat(cmd, "width", &cfg.Viewport.Width)
	overrideFloat(cmd, "height", &cfg.Viewport.Height)
	overrideFloat(cmd, "dpr", &cfg.Gallery.DevicePixelRatio)
	if f := cmd.Flags().Lookup("no-parallax"); f != nil && f.Changed {
		cfg.Gallery.DisableParallax, _ = cmd.Flags().GetBool("no-parallax")
	}
}

func overrideFloat(cmd *cobra.Command, name string, dst *float64) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

// config loads the config file and applies cmd's flags on top.
func (c *CLI) config(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	cfg.Gallery.Logger = c.Logger
	return cfg, cfg.Validate()
}

// parsePoint parses "x,y".
func parsePoint(s string) (viewport.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return viewport.Point{}, errors.New(errors.ErrCodeInvalidInput, "point must be x,y, got %q", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return viewport.Point{}, errors.New(errors.ErrCodeInvalidInput, "point must be x,y, got %q", s)
	}
	return viewport.Point{X: x, Y: y}, nil
}
