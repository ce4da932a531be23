// Package connector defines the source-connector contract and the registry
// that tracks which platforms are configured.
package connector

import (
	"context"
	"sort"
	"sync"

	"github.com/angelcm/marketing-pulse/internal/models"
)

// Connector is one marketing/e-commerce/email platform. Fetch returns a
// per-day table over the trailing window; it may return (nil, nil) when the
// platform has nothing for the window.
type Connector interface {
	ID() string
	Type() models.SourceType
	IsConnected() bool
	Fetch(ctx context.Context, days int) (*models.RawTable, error)
}

// Info is the display metadata shown on the sources endpoint.
type Info struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Status is one registry entry as reported over HTTP.
type Status struct {
	ID        string            `json:"id"`
	Type      models.SourceType `json:"type"`
	Connected bool              `json:"connected"`
	Info      Info              `json:"info"`
}

// Registry holds the configured connectors. Registration order is preserved
// so listings and fan-out are deterministic.
type Registry struct {
	mu    sync.RWMutex
	order []string
	conns map[string]Connector
	infos map[string]Info
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Connector),
		infos: make(map[string]Info),
	}
}

// Register adds or replaces a connector. Replacing keeps the original
// position in the listing.
func (r *Registry) Register(c Connector, info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := c.ID()
	if _, exists := r.conns[id]; !exists {
		r.order = append(r.order, id)
	}
	r.conns[id] = c
	r.infos[id] = info
}

func (r *Registry) Get(id string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Connected returns the connectors currently able to fetch, in registration
// order. A disconnected connector is the normal "not yet configured" state,
// not an error.
func (r *Registry) Connected() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connector, 0, len(r.order))
	for _, id := range r.order {
		if c := r.conns[id]; c.IsConnected() {
			out = append(out, c)
		}
	}
	return out
}

// Statuses reports every registered connector, connected or not.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.order))
	for _, id := range r.order {
		c := r.conns[id]
		out = append(out, Status{ID: id, Type: c.Type(), Connected: c.IsConnected(), Info: r.infos[id]})
	}
	return out
}

// CountsByCategory tallies total and connected connectors per category.
func (r *Registry) CountsByCategory() map[string][2]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][2]int)
	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	for _, id := range ids {
		cat := r.infos[id].Category
		pair := out[cat]
		pair[0]++
		if r.conns[id].IsConnected() {
			pair[1]++
		}
		out[cat] = pair
	}
	return out
}
