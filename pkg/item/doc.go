// Package item defines the image descriptors that feed the canvas and the
// manifest formats they are loaded from.
//
// Items arrive from the content host as an ordered, wholesale list: there is
// no incremental diffing. Order matters because the layout engine places
// items in input order, and earlier items repel later ones.
//
// # Manifests
//
// [Import] reads JSON, TOML or YAML manifests chosen by file extension:
//
//	[[items]]
//	id = "harbor"
//	url = "https://cdn.example.com/harbor.jpg"
//	width = 12
//	aspect = 1.5
//	caption = "Harbor at dusk"
//
// Every item is validated ([Item.Validate]); a manifest with a duplicate ID
// or a non-positive dimension is rejected with an INVALID_MANIFEST error.
package item
