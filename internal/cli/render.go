package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panorama/pkg/cache"
	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/render"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// renderOpts holds the render command flags.
type renderOpts struct {
	output   string
	format   string
	center   string
	zoom     float64
	selectID string
	failed   []string
	captions bool
	scale    float64
	noCache  bool
}

// renderCommand creates the render command for offline snapshots.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{zoom: 1, scale: 1}

	cmd := &cobra.Command{
		Use:   "render [manifest]",
		Short: "Render a snapshot of the canvas",
		Long: `Render a snapshot of the canvas as SVG, PNG or JSON.

The camera starts at the layout origin. --center and --zoom move it; --select
activates an item exactly as a click would and waits for the camera to
settle beside the side panel. --failed marks items whose image did not load.

Snapshots are cached under the user cache directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("zoom") {
				opts.zoom = 0
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default: <manifest>.<format>)")
	f.StringVarP(&opts.format, "format", "f", "", "output format: svg, png, json (default: from --output, else svg)")
	f.StringVar(&opts.center, "center", "", "camera center in world pixels as x,y")
	f.Float64Var(&opts.zoom, "zoom", opts.zoom, "camera zoom")
	f.StringVar(&opts.selectID, "select", "", "activate this item before rendering")
	f.StringSliceVar(&opts.failed, "failed", nil, "item IDs to show as failed loads")
	f.BoolVar(&opts.captions, "captions", false, "draw item captions")
	f.Float64Var(&opts.scale, "scale", opts.scale, "PNG pixel scale")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the snapshot cache")
	addViewFlags(cmd)
	addLayoutFlags(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, input string, cfg Config, opts renderOpts) error {
	format, output, err := resolveOutput(input, opts.format, opts.output)
	if err != nil {
		return err
	}

	items, err := c.loadItems(input)
	if err != nil {
		return err
	}
	sc, err := newScene(cfg, items, &viewport.StaticElement{W: cfg.Viewport.Width, H: cfg.Viewport.Height})
	if err != nil {
		return err
	}
	defer sc.close()

	if opts.center != "" || opts.zoom > 0 {
		center := sc.ctrl.Center()
		if opts.center != "" {
			if center, err = parsePoint(opts.center); err != nil {
				return err
			}
		}
		zoom := opts.zoom
		if zoom <= 0 {
			zoom = sc.ctrl.Zoom()
		}
		sc.look(center, zoom)
	}
	if opts.selectID != "" {
		if err := sc.focus(opts.selectID); err != nil {
			return err
		}
	}
	if err := sc.fail(opts.failed, errors.New(errors.ErrCodeInvalidInput, "marked failed")); err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(ctx))
	frame := sc.gallery.Frame()

	store, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	keyer := cache.NewDefaultKeyer()
	key := keyer.SnapshotKey(
		keyer.LayoutKey(sc.gallery.Layout().Key, cfg.LayoutKey()),
		snapshotKey(frame, sc.gallery.Items(), cfg.GalleryOptions().WithDefaults(), format, opts),
	)

	data, cached, err := store.Get(ctx, key)
	if err != nil {
		loggerFromContext(ctx).Warn("snapshot cache read failed", "err", err)
	}
	if !cached {
		if data, err = renderFrame(frame, format, opts); err != nil {
			return err
		}
		if err := store.Set(ctx, key, data, 0); err != nil {
			loggerFromContext(ctx).Warn("snapshot cache write failed", "err", err)
		}
	}

	if output == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}
	prog.done("Rendered frame")
	printSuccess(w, "Rendered %s", format)
	printFile(w, output)
	printStats(w, len(frame.Items), sc.gallery.Layout().Overlaps(), cached)
	printDetail(w, "%d visible · zoom %.2f · center %.0f,%.0f", frame.Visible, frame.Zoom, frame.Center.X, frame.Center.Y)
	return nil
}

func renderFrame(f gallery.Frame, format render.Format, opts renderOpts) ([]byte, error) {
	var ropts []render.Option
	if opts.captions {
		ropts = append(ropts, render.WithCaptions())
	}
	switch format {
	case render.FormatSVG:
		return render.RenderSVG(f, ropts...), nil
	case render.FormatPNG:
		return render.RenderPNG(f, append(ropts, render.WithScale(opts.scale))...)
	case render.FormatJSON:
		return render.RenderJSON(f)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "snapshots cannot be rendered as %s", format)
}

// resolveOutput picks the format and output path. An explicit format wins;
// otherwise the output extension decides, falling back to SVG.
func resolveOutput(input, format, output string) (render.Format, string, error) {
	if format == "" {
		format = string(render.FormatSVG)
		if ext := strings.TrimPrefix(filepath.Ext(output), "."); ext != "" && output != "-" {
			format = ext
		}
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return "", "", err
	}
	if f == render.FormatDOT {
		return "", "", errors.New(errors.ErrCodeUnsupported, "snapshots cannot be rendered as dot; use the layout command")
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + string(f)
	}
	return f, output, nil
}

// snapshotKey captures every input that changes the rendered bytes.
func snapshotKey(f gallery.Frame, items []item.Item, g gallery.Options, format render.Format, opts renderOpts) cache.SnapshotKeyOpts {
	k := cache.SnapshotKeyOpts{
		Items:    cache.HashJSON(items),
		Options:  cache.HashJSON(g),
		CenterX:  f.Center.X,
		CenterY:  f.Center.Y,
		Zoom:     f.Zoom,
		Width:    f.Width,
		Height:   f.Height,
		DPR:      g.DevicePixelRatio,
		Selected: f.Selected,
		Format:   fmt.Sprintf("%s@%gx/captions=%t/parallax=%g", format, opts.scale, opts.captions, g.Parallax),
	}
	for _, v := range f.Items {
		if v.Status == gallery.StatusFailed {
			k.Failed = append(k.Failed, v.Item.ID)
		}
	}
	return k
}
