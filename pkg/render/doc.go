// Package render turns gallery frames into static snapshots.
//
// # Formats
//
//   - SVG ([RenderSVG]): one <image> per visible item at its sized URL,
//     with depth opacity, selection outline, placeholders for failed loads
//     and the side panel band. Built with [github.com/ajstarks/svgo].
//   - PNG ([RenderPNG]): rasterized with [github.com/fogleman/gg]. Images
//     are not fetched; each item is a tinted placeholder with its label.
//   - JSON ([RenderJSON]): the frame itself, for tests and tooling.
//
// Layout diagnostics are rendered separately: [RenderDOT] runs a DOT graph
// (see layout.ToDOT) through Graphviz.
//
//	f := g.Frame()
//	svg := render.RenderSVG(f, render.WithCaptions())
//	png, err := render.RenderPNG(f, render.WithScale(2))
package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/panorama/pkg/errors"
)

// Format is an output format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG, FormatJSON, FormatDOT:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"invalid format: %q (must be one of: svg, png, json, dot)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// Option configures snapshot rendering.
type Option func(*options)

type options struct {
	captions   bool
	title      string
	scale      float64
	background string
}

// WithCaptions draws each item's label below it.
func WithCaptions() Option { return func(o *options) { o.captions = true } }

// WithTitle sets the document title (SVG only).
func WithTitle(t string) Option { return func(o *options) { o.title = t } }

// WithScale sets the PNG pixel scale (default 1).
func WithScale(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.scale = s
		}
	}
}

// WithBackground sets the canvas color as "#rrggbb".
func WithBackground(hex string) Option { return func(o *options) { o.background = hex } }

func newOptions(opts ...Option) options {
	o := options{scale: 1, background: "#111113", title: "panorama"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// parseHex parses "#rrggbb" into components in [0,1]. Invalid input yields
// black.
func parseHex(hex string) (r, g, b float64) {
	var ri, gi, bi int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0, 0, 0
	}
	return float64(ri) / 255, float64(gi) / 255, float64(bi) / 255
}
