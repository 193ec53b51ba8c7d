package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/harvestingmedia/dataprocessor/table"
)

// Processor is a named transformation from an uploaded table to a
// destination
type Processor interface {
	Name() string
	Title() string
	Fields() []Field
	// Extensions lists the upload types the process accepts
	Extensions() []string
	Destination() Destination
	Run(ctx context.Context, in *table.Table, mapping Mapping, opts Options) Outcome
}

// Registry holds the available processes in registration order
type Registry struct {
	order  []string
	byName map[string]Processor
}

// NewRegistry creates a registry from processes
func NewRegistry(processors ...Processor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Processor, len(processors))}
	for _, p := range processors {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a process; names must be unique
func (r *Registry) Register(p Processor) error {
	if _, dup := r.byName[p.Name()]; dup {
		return fmt.Errorf("process %q already registered", p.Name())
	}
	r.byName[p.Name()] = p
	r.order = append(r.order, p.Name())
	return nil
}

// Get returns a process by name
func (r *Registry) Get(name string) (Processor, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcess, name)
	}
	return p, nil
}

// All returns the processes in registration order
func (r *Registry) All() []Processor {
	out := make([]Processor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}
