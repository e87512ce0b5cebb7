package render

import (
	"bytes"
	"hash/fnv"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
)

// RenderPNG rasterizes f. Images are drawn as tinted placeholders carrying
// the item label; the snapshot shows composition, not pixels.
func RenderPNG(f gallery.Frame, opts ...Option) ([]byte, error) {
	o := newOptions(opts...)
	w := int(math.Ceil(f.Width * o.scale))
	h := int(math.Ceil(f.Height * o.scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "frame has no area: %vx%v", f.Width, f.Height)
	}

	dc := gg.NewContext(w, h)
	dc.Scale(o.scale, o.scale)
	dc.SetRGB(parseHex(o.background))
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, v := range f.Items {
		if v.Visible {
			drawItem(dc, v, o)
		}
	}
	if f.Panel > 0 {
		drawPanel(dc, f)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func drawItem(dc *gg.Context, v gallery.ItemView, o options) {
	r := v.Screen
	x, y := r.Min.X, r.Min.Y
	w, h := r.Max.X-r.Min.X, r.Max.Y-r.Min.Y

	red, green, blue := tint(v.Item.ID)
	dc.DrawRectangle(x, y, w, h)
	dc.SetRGBA(red, green, blue, v.Opacity)
	dc.Fill()

	if v.Status == gallery.StatusFailed {
		dc.SetRGB(parseHex(failedColor))
		dc.SetLineWidth(2)
		dc.DrawLine(x, y, x+w, y+h)
		dc.DrawLine(x+w, y, x, y+h)
		dc.Stroke()
	}
	if v.Selected {
		dc.SetRGB(parseHex(selectionColor))
		dc.SetLineWidth(3)
		dc.DrawRectangle(x-2, y-2, w+4, h+4)
		dc.Stroke()
	}

	dc.SetRGBA(1, 1, 1, v.Opacity)
	if w > 40 && h > 20 {
		dc.DrawStringAnchored(v.Item.ID, x+w/2, y+h/2, 0.5, 0.5)
	}
	if o.captions {
		dc.SetRGB(parseHex(textColor))
		dc.DrawString(v.Item.Label(), x, y+h+14)
	}
}

func drawPanel(dc *gg.Context, f gallery.Frame) {
	x := f.Width - f.Panel
	dc.DrawRectangle(x, 0, f.Panel, f.Height)
	dc.SetRGBA(0.094, 0.094, 0.106, 0.95)
	dc.Fill()

	v, ok := f.Find(f.Selected)
	if !ok {
		return
	}
	dc.SetRGB(parseHex(textColor))
	dc.DrawString(v.Item.Label(), x+24, 48)
	if v.Item.Alt != "" && v.Item.Alt != v.Item.Label() {
		dc.SetRGB(0.63, 0.63, 0.67)
		dc.DrawStringWrapped(v.Item.Alt, x+24, 64, 0, 0, f.Panel-48, 1.4, gg.AlignLeft)
	}
}

// tint derives a stable muted color from an ID.
func tint(id string) (r, g, b float64) {
	h := fnv.New32a()
	h.Write([]byte(id))
	hue := float64(h.Sum32()%360) / 60
	x := 1 - math.Abs(math.Mod(hue, 2)-1)
	switch int(hue) {
	case 0:
		r, g, b = 1, x, 0
	case 1:
		r, g, b = x, 1, 0
	case 2:
		r, g, b = 0, 1, x
	case 3:
		r, g, b = 0, x, 1
	case 4:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}
	const sat, base = 0.45, 0.25
	return base + sat*r, base + sat*g, base + sat*b
}
