package codebook

import (
	"context"
	"encoding/json"
	"io"

	"workshop/internal/core/apperror"
)

// Handle is the non-generic face of a codebook service. The registry,
// the envelope and the CLI work against handles so they never need the
// concrete row type.
type Handle interface {
	Name() string
	SeedDefaults(ctx context.Context) (ImportStats, error)
	ExportRows(ctx context.Context) ([]json.RawMessage, error)
	ImportRows(ctx context.Context, raw []json.RawMessage, opts ImportOptions) (ImportStats, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions) (ImportStats, error)
}

// Registry holds every registered codebook in registration order.
// Registration order is restore order, so codebooks referenced by others
// (positions before hourly rates) must register first.
type Registry struct {
	order   []string
	handles map[string]Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Register adds a codebook handle. Registering the same name twice panics,
// it is a wiring bug.
func (r *Registry) Register(h Handle) {
	if _, ok := r.handles[h.Name()]; ok {
		panic("codebook registered twice: " + h.Name())
	}
	r.order = append(r.order, h.Name())
	r.handles[h.Name()] = h
}

// Get returns the handle for a codebook name.
func (r *Registry) Get(name string) (Handle, error) {
	h, ok := r.handles[name]
	if !ok {
		return nil, apperror.NewNotFound("codebook", name)
	}
	return h, nil
}

// Names lists registered codebooks in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns handles in registration order.
func (r *Registry) All() []Handle {
	out := make([]Handle, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.handles[name])
	}
	return out
}
