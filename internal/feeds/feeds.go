package feeds

import (
	"context"
	"fmt"

	"github.com/VictorSaf/ainvestorhood5/internal/domain"
)

// Request carries all parameters required to pull one configured feed.
type Request struct {
	FeedName string
	URL      string
	MaxItems int
	Options  map[string]string
}

// Source captures a single feed-format strategy (RSS, Atom, site APIs).
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.RawItem, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("feed source %s is not registered", name)
}
