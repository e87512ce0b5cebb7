// Package cache stores rendered canvas artifacts (layouts and snapshots)
// keyed by the inputs that produced them.
//
// # Backends
//
//   - [MemoryCache]: in-process map with TTLs, used by the HTTP host
//   - [FileCache]: directory of JSON entries, used by the CLI renderer
//   - [NullCache]: stores nothing, for tests or when caching is disabled
//
// # Keys
//
// A [Keyer] builds deterministic keys from item-set hashes and render
// options. [NewScopedKeyer] prefixes every key, which the HTTP host uses to
// keep per-view snapshots apart.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a computed layout.
	LayoutKey(itemsKey string, opts LayoutKeyOpts) string

	// SnapshotKey identifies a rendered frame.
	SnapshotKey(layoutKey string, opts SnapshotKeyOpts) string
}

// LayoutKeyOpts are the layout parameters that change placements.
type LayoutKeyOpts struct {
	RadiusX     float64 `json:"rx"`
	RadiusY     float64 `json:"ry"`
	Padding     float64 `json:"pad"`
	GrowX       float64 `json:"gx"`
	GrowY       float64 `json:"gy"`
	MaxAttempts int     `json:"attempts"`
}

// SnapshotKeyOpts are the camera and output parameters of a rendered frame.
// Items and Options are content digests (see [HashJSON]) of the item set and
// of the gallery options; the layout key alone only covers item geometry.
type SnapshotKeyOpts struct {
	Items    string   `json:"items"`
	Options  string   `json:"opts"`
	CenterX  float64  `json:"cx"`
	CenterY  float64  `json:"cy"`
	Zoom     float64  `json:"zoom"`
	Width    float64  `json:"w"`
	Height   float64  `json:"h"`
	DPR      float64  `json:"dpr"`
	Selected string   `json:"sel,omitempty"`
	Failed   []string `json:"failed,omitempty"`
	Format   string   `json:"format"`
}

// DefaultKeyer hashes key options with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(itemsKey string, opts LayoutKeyOpts) string {
	return hashKey("layout", itemsKey, opts)
}

// SnapshotKey implements Keyer.
func (DefaultKeyer) SnapshotKey(layoutKey string, opts SnapshotKeyOpts) string {
	return hashKey("snapshot", layoutKey, opts)
}

func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON digests the JSON encoding of v. Values that fail to encode all
// share the digest of an empty input.
func HashJSON(v any) string {
	data, _ := json.Marshal(v)
	return Hash(data)
}
