package resolver

import (
	"net/url"
	"strconv"
	"sync"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/observability"
)

// DefaultParam is the query parameter carrying the requested width.
const DefaultParam = "width"

// Resolver memoizes sized image URLs. It holds one entry per source URL and
// never evicts; create one per gallery and drop it with the gallery.
//
// A Resolver is safe for concurrent use.
type Resolver struct {
	param string

	mu      sync.RWMutex
	entries map[string]*entry
	hits    int
	misses  int
}

type entry struct {
	base  *url.URL
	sizes map[int]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithParam changes the width query parameter name.
func WithParam(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.param = name
		}
	}
}

// New creates an empty Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		param:   DefaultParam,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RequestSize returns sourceURL with its width parameter set to width.
// Existing query parameters and fragments are kept; an existing width
// parameter is replaced.
//
// Repeated calls with the same arguments return the identical string, and
// requesting a new width for a URL leaves earlier widths cached. An invalid
// URL yields ErrCodeInvalidURL and a non-positive width ErrCodeInvalidWidth;
// both are caller bugs.
func (r *Resolver) RequestSize(sourceURL string, width int) (string, error) {
	if err := errors.ValidateWidth(width); err != nil {
		return "", err
	}

	r.mu.RLock()
	e, ok := r.entries[sourceURL]
	if ok {
		if sized, ok := e.sizes[width]; ok {
			r.mu.RUnlock()
			r.record(sourceURL, width, true)
			return sized, nil
		}
	}
	r.mu.RUnlock()

	if !ok {
		if err := errors.ValidateURL(sourceURL); err != nil {
			return "", err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have filled the entry in between.
	e, ok = r.entries[sourceURL]
	if !ok {
		base, err := url.Parse(sourceURL)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidURL, err, "parse %q", sourceURL)
		}
		e = &entry{base: base, sizes: make(map[int]string)}
		r.entries[sourceURL] = e
	}
	if sized, ok := e.sizes[width]; ok {
		r.hits++
		observability.Resolver().OnResolve(sourceURL, width, true)
		return sized, nil
	}

	sized := e.derive(r.param, width)
	e.sizes[width] = sized
	r.misses++
	observability.Resolver().OnResolve(sourceURL, width, false)
	return sized, nil
}

// RequestLevel is RequestSize with the width of level.
func (r *Resolver) RequestLevel(sourceURL string, level Level) (string, error) {
	return r.RequestSize(sourceURL, level.Width())
}

func (r *Resolver) record(sourceURL string, width int, hit bool) {
	r.mu.Lock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
	r.mu.Unlock()
	observability.Resolver().OnResolve(sourceURL, width, hit)
}

func (e *entry) derive(param string, width int) string {
	u := *e.base
	q := u.Query()
	q.Set(param, strconv.Itoa(width))
	u.RawQuery = q.Encode()
	return u.String()
}

// Len returns the number of distinct source URLs seen.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stats reports lookup counters.
type Stats struct {
	Sources int `json:"sources"`
	Sizes   int `json:"sizes"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Stats returns a snapshot of the resolver counters.
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{Sources: len(r.entries), Hits: r.hits, Misses: r.misses}
	for _, e := range r.entries {
		s.Sizes += len(e.sizes)
	}
	return s
}
