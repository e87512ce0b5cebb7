package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The HTTP host gives each view session its own scope so that deleting a
// view can never serve its snapshots to another one.
//
// Example usage:
//
//	viewKeyer := NewScopedKeyer(NewDefaultKeyer(), "view:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(itemsKey string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(itemsKey, opts)
}

// SnapshotKey generates a prefixed key for snapshot caching.
func (k *ScopedKeyer) SnapshotKey(layoutKey string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(layoutKey, opts)
}
