package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/panorama/internal/watcher"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// viewCommand creates the interactive terminal view.
func (c *CLI) viewCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "view [manifest]",
		Short: "Explore the canvas in the terminal",
		Long: `Explore the canvas in the terminal.

Drag with the mouse to pan, scroll to zoom and click an item to focus it.
Press / to find an item by id, caption or alt text, and ? for all keys.

With --watch the manifest is reloaded whenever it changes on disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			return c.runView(cmd.Context(), args[0], cfg, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the manifest when it changes")
	addViewFlags(cmd)
	addLayoutFlags(cmd)
	return cmd
}

func (c *CLI) runView(ctx context.Context, path string, cfg Config, watch bool) error {
	items, err := c.loadItems(path)
	if err != nil {
		return err
	}

	// Sized by the first WindowSizeMsg; cfg only matters until then.
	el := &viewport.StaticElement{W: cfg.Viewport.Width, H: cfg.Viewport.Height}
	sc, err := newScene(cfg, items, el)
	if err != nil {
		return err
	}
	defer sc.close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newViewModel(sc, el),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(runCtx),
	)

	var g errgroup.Group
	if watch {
		w, err := watcher.New(path, watcher.WithLogger(c.Logger))
		if err != nil {
			return err
		}
		defer w.Close()
		g.Go(func() error {
			err := w.Run(runCtx, func() {
				items, err := item.Import(path)
				p.Send(reloadMsg{items: items, err: err})
			})
			if runCtx.Err() != nil {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	})
	return g.Wait()
}
