package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/panorama/internal/server"
	"github.com/matzehuels/panorama/internal/watcher"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/session"
)

// serveOpts holds the serve command flags.
type serveOpts struct {
	addr  string
	ttl   time.Duration
	watch bool
}

// serveCommand creates the HTTP host command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [manifest]",
		Short: "Serve interactive views over HTTP",
		Long: `Serve interactive views over HTTP.

Clients create a view with POST /api/views, drive it with pointer, wheel and
activate requests and read frames or rendered snapshots back. Idle views
expire after --ttl.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = opts.addr
			}
			if cmd.Flags().Changed("ttl") {
				cfg.Server.TTL = opts.ttl
			}
			return c.runServe(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts.watch)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	f.DurationVar(&opts.ttl, "ttl", session.DefaultTTL, "idle view lifetime")
	f.BoolVarP(&opts.watch, "watch", "w", false, "reload the manifest when it changes")
	addViewFlags(cmd)
	addLayoutFlags(cmd)
	return cmd
}

// sessionConfig describes the views the server creates.
func (cfg *Config) sessionConfig() session.Config {
	return session.Config{
		Width:    cfg.Viewport.Width,
		Height:   cfg.Viewport.Height,
		Gallery:  cfg.GalleryOptions(),
		Viewport: cfg.ViewportOptions(),
	}
}

func (c *CLI) runServe(ctx context.Context, out io.Writer, path string, cfg Config, watch bool) error {
	items, err := c.loadItems(path)
	if err != nil {
		return err
	}

	srv, err := server.New(ctx, cfg.sessionConfig(), items,
		server.WithLogger(c.Logger),
		server.WithTTL(cfg.Server.TTL),
		server.WithLayoutKey(cfg.LayoutKey()),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })

	if watch {
		w, err := watcher.New(path, watcher.WithLogger(c.Logger))
		if err != nil {
			return err
		}
		defer w.Close()
		g.Go(func() error {
			err := w.Run(gctx, func() {
				items, err := item.Import(path)
				if err != nil {
					c.Logger.Warn("reload failed", "path", path, "err", err)
					return
				}
				if err := srv.SetItems(items); err != nil {
					c.Logger.Warn("reload failed", "path", path, "err", err)
				}
			})
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	printInfo(out, "Serving %s on %s", plural(len(items), "item"), StyleLink.Render("http://"+displayAddr(cfg.Server.Addr)))
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// displayAddr turns a bare ":port" into "localhost:port".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
