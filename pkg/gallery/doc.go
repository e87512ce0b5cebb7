// Package gallery composes the layout engine, image resolver and viewport
// into render passes.
//
// For every [Gallery.Frame] each item gets:
//
//   - a screen transform: its layout position relative to the camera,
//     scaled by zoom, plus a parallax offset of
//     (itemPosition - scaledCenter) * Parallax
//   - a detail level: Low when its padded box lies entirely outside the
//     viewport grown by Overscan on each side, otherwise chosen from
//     DevicePixelRatio * zoom * width * UnitToPixel
//   - a depth fade: depth = |x| + |y| in layout units,
//     opacity = max(0.7, 1 - depth/100), z-index = floor(depth/10)
//
// [Gallery.Activate] selects an item and moves the camera to fit it,
// keeping it clear of a side panel on wide viewports. Any manual camera
// gesture clears the selection, as does [Gallery.Reset].
package gallery
