package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/render"
)

const formatTable = "table"

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "layout [manifest]",
		Short: "Compute and print the canvas arrangement",
		Long: `Compute the elliptical arrangement of a manifest and print it.

Formats:
  table  placements with attempts and blockers (default)
  json   the layout document
  dot    collision graph: an edge a -> b means b pushed a outward
  svg    the collision graph laid out by Graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	addLayoutFlags(cmd)
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, w io.Writer, input string, cfg Config, format, output string) error {
	items, err := c.loadItems(input)
	if err != nil {
		return err
	}
	prog := newProgress(loggerFromContext(ctx))
	l := layout.Compute(items, cfg.LayoutOptions()...)
	prog.debug("layout computed", "items", len(items))

	var data []byte
	switch format {
	case formatTable:
		data = []byte(layoutTable(items, l) + "\n")
	case string(render.FormatJSON):
		data, err = render.LayoutJSON(l)
	case string(render.FormatDOT):
		data = []byte(layout.ToDOT(l))
	case string(render.FormatSVG):
		data, err = render.RenderDOT(ctx, layout.ToDOT(l))
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid layout format %q (must be one of: table, json, dot, svg)", format)
	}
	if err != nil {
		return err
	}

	if output == "" {
		_, err := w.Write(data)
		if err == nil && format == formatTable {
			printStats(w, len(items), l.Overlaps(), false)
		}
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", output)
	}
	printSuccess(w, "Layout complete")
	printFile(w, output)
	printStats(w, len(items), l.Overlaps(), false)
	printNextStep(w, "Render", fmt.Sprintf("%s render %s", appName, input))
	return nil
}

// layoutTable renders placements as a bordered table.
func layoutTable(items []item.Item, l layout.Layout) string {
	rows := make([][]string, len(items))
	for i, p := range l.Placements {
		status := "ok"
		if p.Overlapped {
			status = "overlap"
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			p.ItemID,
			fmt.Sprintf("%.1f", p.X),
			fmt.Sprintf("%.1f", p.Y),
			fmt.Sprintf("%gx%g", p.Width, p.Height),
			fmt.Sprint(p.Attempts),
			status,
			strings.Join(p.Blockers, ", "),
		}
	}

	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Item", "X", "Y", "Size", "Tries", "Status", "Blocked by").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return header
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(l.Placements) {
				return base
			}
			p := l.Placements[row]
			switch {
			case col == 6 && p.Overlapped:
				return base.Foreground(colorRed)
			case col == 5 && p.Attempts > 1:
				return base.Foreground(colorYellow)
			case col == 1:
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorGray)
		}).
		String()
}
