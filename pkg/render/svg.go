package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/panorama/pkg/gallery"
)

const (
	selectionColor   = "#f5a524"
	placeholderColor = "#26262b"
	failedColor      = "#e5484d"
	panelColor       = "#18181b"
	textColor        = "#e4e4e7"
)

// RenderSVG renders the visible items of f in paint order.
func RenderSVG(f gallery.Frame, opts ...Option) []byte {
	o := newOptions(opts...)
	w, h := px(f.Width), px(f.Height)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(w, h)
	canvas.Title(o.title)
	canvas.Rect(0, 0, w, h, "fill:"+o.background)

	for _, v := range f.Items {
		if !v.Visible {
			continue
		}
		renderItem(canvas, v, o)
	}

	if f.Panel > 0 {
		renderPanel(canvas, f)
	}
	canvas.End()
	return buf.Bytes()
}

func renderItem(canvas *svg.SVG, v gallery.ItemView, o options) {
	r := v.Screen
	x, y := px(r.Min.X), px(r.Min.Y)
	w, h := px(r.Max.X-r.Min.X), px(r.Max.Y-r.Min.Y)

	canvas.Gid("item-" + v.Item.ID)
	canvas.Group(fmt.Sprintf(`opacity="%.2f"`, v.Opacity), fmt.Sprintf(`data-level="%s"`, v.Level))

	if v.Status == gallery.StatusFailed {
		canvas.Rect(x, y, w, h,
			"fill:"+placeholderColor+";stroke:"+failedColor+";stroke-width:2;stroke-dasharray:6 4")
		canvas.Text(x+w/2, y+h/2, "image unavailable",
			"fill:"+failedColor+";font-family:sans-serif;font-size:12px;text-anchor:middle")
	} else {
		canvas.Image(x, y, w, h, html.EscapeString(v.URL), `preserveAspectRatio="xMidYMid slice"`)
	}
	if v.Item.Alt != "" {
		canvas.Title(v.Item.Alt)
	}

	if v.Selected {
		canvas.Rect(x-2, y-2, w+4, h+4, "fill:none;stroke:"+selectionColor+";stroke-width:3")
	}
	if o.captions {
		canvas.Text(x, y+h+14, v.Item.Label(),
			"fill:"+textColor+";font-family:sans-serif;font-size:12px")
	}

	canvas.Gend()
	canvas.Gend()
}

func renderPanel(canvas *svg.SVG, f gallery.Frame) {
	x := px(f.Width - f.Panel)
	canvas.Gid("panel")
	canvas.Rect(x, 0, px(f.Panel), px(f.Height), "fill:"+panelColor+";fill-opacity:0.95")
	if v, ok := f.Find(f.Selected); ok {
		canvas.Text(x+24, 48, v.Item.Label(),
			"fill:"+textColor+";font-family:sans-serif;font-size:18px;font-weight:bold")
		if v.Item.Alt != "" && v.Item.Alt != v.Item.Label() {
			canvas.Text(x+24, 76, v.Item.Alt, "fill:#a1a1aa;font-family:sans-serif;font-size:13px")
		}
	}
	canvas.Gend()
}

func px(v float64) int { return int(math.Round(v)) }
