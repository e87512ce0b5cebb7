// Package cli implements the panorama command-line interface.
//
// Commands load an item manifest (JSON, TOML or YAML), arrange it on the
// canvas and then either print the layout, render a snapshot, open an
// interactive terminal view or serve views over HTTP.
//
// # Commands
//
//   - layout: print placements as a table, JSON, DOT or a Graphviz SVG
//   - render: write an SVG, PNG or JSON snapshot at a given camera
//   - view: explore the canvas in the terminal
//   - serve: host interactive views over HTTP
//   - cache: manage the snapshot cache
//
// # Configuration
//
// Every command reads an optional TOML file (--config) with [layout],
// [viewport], [gallery] and [server] tables. Flags passed on the command
// line override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// installs logging hooks on the layout, resolver, viewport, gallery and
// cache packages.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panorama/pkg/buildinfo"
	"github.com/matzehuels/panorama/pkg/cache"
	"github.com/matzehuels/panorama/pkg/item"
)

// appName is the application name used for directories and display.
const appName = "panorama"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Panorama arranges images on an infinite canvas",
		Long:         `Panorama lays out an image collection on a pannable, zoomable 2D canvas, loads each image at the resolution it is shown at, and focuses the camera on the item you pick.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				installLogHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// loadItems imports the manifest at path.
func (c *CLI) loadItems(path string) ([]item.Item, error) {
	p := newProgress(c.Logger)
	items, err := item.Import(path)
	if err != nil {
		return nil, err
	}
	p.debug("loaded manifest", "path", path, "items", len(items))
	return items, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// cacheDir returns the snapshot cache directory (~/.cache/panorama/ or
// under $XDG_CACHE_HOME).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
