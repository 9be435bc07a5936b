package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MKhiriev/go-record-sync/internal/mapping"
)

// Registry holds the record types known to the sync core. It is built at
// startup and passed explicitly to the components that need it.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Mappable
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Mappable)}
}

// Register adds types to the registry. A type whose mapping is nil is
// accepted; reconciling it fails with mapping.ErrNoMappingDefined.
func (r *Registry) Register(types ...Mappable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range types {
		if d, ok := t.(*Definition); ok {
			if err := d.validate(); err != nil {
				return err
			}
		} else if t.TypeName() == "" {
			return errorf("type name is empty")
		} else if spec := t.Mapping(); spec != nil {
			if err := spec.Validate(); err != nil {
				return errorf("%s: %w", t.TypeName(), err)
			}
		}

		name := t.TypeName()
		if _, dup := r.types[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateType, name)
		}
		r.types[name] = t
		r.order = append(r.order, name)
	}
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (Mappable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	return t, ok
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []Mappable {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Mappable, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// Fetchables returns the registered types that can be fetched.
func (r *Registry) Fetchables() []Fetchable {
	var out []Fetchable
	for _, t := range r.Types() {
		if f, ok := t.(Fetchable); ok && f.FetchRequest().Path != "" {
			out = append(out, f)
		}
	}
	return out
}

// Syncables returns the registered types whose changes are pushed.
func (r *Registry) Syncables() []Syncable {
	var out []Syncable
	for _, t := range r.Types() {
		if s, ok := t.(Syncable); ok {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that every object and collection transformer points at a
// registered type, and that fetch dependencies name fetchable types without
// forming a cycle.
func (r *Registry) Validate() error {
	if err := r.validateRelations(); err != nil {
		return err
	}
	return r.validateDependencies()
}

func (r *Registry) validateRelations() error {
	for _, t := range r.Types() {
		spec := t.Mapping()
		if spec == nil {
			continue
		}
		for _, fm := range spec.Fields() {
			tr := spec.Transformer(fm.Field)
			if tr == nil {
				continue
			}
			related, ok := relatedType(tr)
			if !ok {
				continue
			}
			if _, known := r.Lookup(related); !known {
				return fmt.Errorf("%w: %s.%s relates to %q", ErrUnknownType, t.TypeName(), fm.Field, related)
			}
		}
	}
	return nil
}

func (r *Registry) validateDependencies() error {
	const (
		visiting = iota + 1
		visited
	)
	marks := make(map[string]int)

	var visit func(name string) error
	visit = func(name string) error {
		switch marks[name] {
		case visiting:
			return errorf("dependency cycle through %s", name)
		case visited:
			return nil
		}
		marks[name] = visiting

		t, _ := r.Lookup(name)
		if dep, ok := t.(Dependent); ok {
			for _, other := range dep.Dependencies() {
				target, known := r.Lookup(other)
				if !known {
					return fmt.Errorf("%w: %s depends on %q", ErrUnknownType, name, other)
				}
				if f, ok := target.(Fetchable); !ok || f.FetchRequest().Path == "" {
					return errorf("%s depends on %s, which is not fetchable", name, other)
				}
				if err := visit(other); err != nil {
					return err
				}
			}
		}

		marks[name] = visited
		return nil
	}

	for _, t := range r.Types() {
		if err := visit(t.TypeName()); err != nil {
			return err
		}
	}
	return nil
}

func relatedType(t *mapping.ValueTransformer) (string, bool) {
	for _, prefix := range []string{"object:", "collection:"} {
		if name, ok := strings.CutPrefix(t.Name(), prefix); ok {
			return name, true
		}
	}
	return "", false
}

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidDefinition}, args...)...)
}
