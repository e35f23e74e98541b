package inference

import "sort"

// Registry is the immutable set of models loaded at startup. A model that
// failed to load is simply absent.
type Registry struct {
	images  map[string]Model
	tabular map[string]TabularModel
}

func NewRegistry(images []Model, tabular []TabularModel) *Registry {
	r := &Registry{
		images:  make(map[string]Model, len(images)),
		tabular: make(map[string]TabularModel, len(tabular)),
	}
	for _, m := range images {
		if m != nil {
			r.images[m.Name()] = m
		}
	}
	for _, m := range tabular {
		if m != nil {
			r.tabular[m.Name()] = m
		}
	}
	return r
}

func (r *Registry) Model(name string) (Model, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.images[name]
	return m, ok
}

func (r *Registry) Tabular(name string) (TabularModel, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.tabular[name]
	return m, ok
}

// Loaded lists every available model name in sorted order.
func (r *Registry) Loaded() []string {
	if r == nil {
		return []string{}
	}
	names := make([]string, 0, len(r.images)+len(r.tabular))
	for name := range r.images {
		names = append(names, name)
	}
	for name := range r.tabular {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
