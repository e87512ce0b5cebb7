// Package resolver maps image source URLs to sized fetch URLs.
//
// Images are requested at one of three widths (see [Level]) through a
// "?width=<n>" query parameter that the serving layer is expected to honor.
// The resolver only computes URLs; it performs no network I/O and no
// resizing.
//
//	r := resolver.New()
//	src, err := r.RequestLevel("https://cdn.example.com/a.jpg", resolver.Medium)
//	// src == "https://cdn.example.com/a.jpg?width=800"
package resolver
