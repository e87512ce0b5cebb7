// Package pkg provides the core libraries for Panorama, an infinite image
// canvas.
//
// # Overview
//
// Panorama scatters an image collection on a 2D plane that can be panned and
// zoomed without limit, loads each image at a width that matches how large it
// is drawn, and flies the camera to an item when it is picked. The pkg
// directory is organized into these areas:
//
//  1. [item] - Item type and manifest import (JSON, TOML, YAML)
//  2. [layout] - Collision-avoiding elliptical arrangement
//  3. [resolver] - Resolution levels and memoized resized URLs
//  4. [viewport] - Camera, gesture recognition and animated transitions
//  5. [gallery] - Per-frame transforms, culling, selection and load state
//  6. [render] - SVG, PNG, JSON and Graphviz output of frames and layouts
//  7. [cache], [session], [observability], [errors] - Infrastructure
//
// # Architecture
//
// The data flow through Panorama:
//
//	Manifest (JSON/TOML/YAML)
//	         ↓
//	    [item] package (validate)
//	         ↓
//	    [layout] package (placements in layout units)
//	         ↓
//	    [gallery] package ← [viewport] camera, [resolver] URLs
//	         ↓
//	    Frame (per-item transform, level, opacity, z-order)
//	         ↓
//	    [render] package or a live host (terminal, HTTP)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/panorama/pkg/gallery"
//	    "github.com/matzehuels/panorama/pkg/item"
//	    "github.com/matzehuels/panorama/pkg/render"
//	    "github.com/matzehuels/panorama/pkg/viewport"
//	)
//
//	// 1. Load items
//	items, _ := item.Import("gallery.json")
//
//	// 2. Create a camera over a 1280x800 surface
//	vp := viewport.New(&viewport.StaticElement{W: 1280, H: 800})
//
//	// 3. Lay out the items and attach the camera
//	g := gallery.New(vp, nil, gallery.Options{})
//	defer g.Close()
//	_ = g.SetItems(items)
//
//	// 4. Focus an item and render what the camera sees
//	g.Activate(items[0].ID)
//	svg := render.RenderSVG(g.Frame())
//
// # Hosts
//
// The library never touches a screen. A host feeds pointer and wheel events
// into [viewport.Controller], drives its [viewport.Scheduler] and draws the
// [gallery.Frame]. The panorama command ships three hosts: an offline
// renderer, a terminal view and an HTTP server.
//
// # Testing
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/viewport/...   # Specific package
//	go test -run Example ./...   # Examples only
//
// [item]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/item
// [layout]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/layout
// [resolver]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/resolver
// [viewport]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/viewport
// [gallery]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/gallery
// [render]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/session
// [observability]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/errors
// [viewport.Controller]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/viewport#Controller
// [viewport.Scheduler]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/viewport#Scheduler
// [gallery.Frame]: https://pkg.go.dev/github.com/matzehuels/panorama/pkg/gallery#Frame
package pkg
