// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about layout passes, resolver lookups, camera motion, frame
// computation and snapshot cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Layout, resolver, viewport and gallery hooks are called synchronously from
// the host's event loop and must return quickly. They take no context because
// the calls they observe take none.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    observability.SetViewportHooks(&myViewportHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnLayoutStart(len(items))
//	// ... place items ...
//	observability.Layout().OnLayoutComplete(len(items), overlaps, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from the layout engine.
type LayoutHooks interface {
	OnLayoutStart(items int)

	// OnLayoutComplete reports how many placements exhausted their attempts.
	OnLayoutComplete(items, overlaps int, duration time.Duration)
}

// =============================================================================
// Resolver Hooks
// =============================================================================

// ResolverHooks receives events from the image URL resolver.
type ResolverHooks interface {
	// OnResolve records a sized URL lookup. hit is false the first time a
	// (source, width) pair is derived.
	OnResolve(source string, width int, hit bool)
}

// =============================================================================
// Viewport Hooks
// =============================================================================

// ViewportHooks receives camera events from viewport controllers.
type ViewportHooks interface {
	OnModeChange(from, to string)
	OnTransitionStart(targetX, targetY, targetZoom float64)

	// OnTransitionEnd fires once per transition. completed is false when
	// the transition was superseded, cancelled by a gesture, or destroyed.
	OnTransitionEnd(completed bool, duration time.Duration)
}

// =============================================================================
// Gallery Hooks
// =============================================================================

// GalleryHooks receives events from the gallery orchestrator.
type GalleryHooks interface {
	OnFrame(items, visible int, duration time.Duration)
	OnSelect(itemID string)
	OnLoadError(itemID string, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayoutStart(int)                        {}
func (NoopLayoutHooks) OnLayoutComplete(int, int, time.Duration) {}

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnResolve(string, int, bool) {}

// NoopViewportHooks is a no-op implementation of ViewportHooks.
type NoopViewportHooks struct{}

func (NoopViewportHooks) OnModeChange(string, string)                 {}
func (NoopViewportHooks) OnTransitionStart(float64, float64, float64) {}
func (NoopViewportHooks) OnTransitionEnd(bool, time.Duration)         {}

// NoopGalleryHooks is a no-op implementation of GalleryHooks.
type NoopGalleryHooks struct{}

func (NoopGalleryHooks) OnFrame(int, int, time.Duration) {}
func (NoopGalleryHooks) OnSelect(string)                 {}
func (NoopGalleryHooks) OnLoadError(string, error)       {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks   LayoutHooks   = NoopLayoutHooks{}
	resolverHooks ResolverHooks = NoopResolverHooks{}
	viewportHooks ViewportHooks = NoopViewportHooks{}
	galleryHooks  GalleryHooks  = NoopGalleryHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetResolverHooks registers custom resolver hooks.
func SetResolverHooks(h ResolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolverHooks = h
	}
}

// SetViewportHooks registers custom viewport hooks.
func SetViewportHooks(h ViewportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		viewportHooks = h
	}
}

// SetGalleryHooks registers custom gallery hooks.
func SetGalleryHooks(h GalleryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		galleryHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolverHooks
}

// Viewport returns the registered viewport hooks.
func Viewport() ViewportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return viewportHooks
}

// Gallery returns the registered gallery hooks.
func Gallery() GalleryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return galleryHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	resolverHooks = NoopResolverHooks{}
	viewportHooks = NoopViewportHooks{}
	galleryHooks = NoopGalleryHooks{}
	cacheHooks = NoopCacheHooks{}
}
