package fieldtree

import (
	"sort"

	"golang.org/x/exp/maps"
)

// Resources is an immutable bundle of named presentation resources (icon
// paths, labels, colours) handed to the view factory. It replaces
// process-wide registries so views can be built without a UI toolkit.
// A nil *Resources is an empty bundle.
type Resources struct {
	entries map[string]string
}

// NewResources creates a bundle holding a copy of entries.
func NewResources(entries map[string]string) *Resources {
	r := &Resources{entries: make(map[string]string, len(entries))}
	maps.Copy(r.entries, entries)
	return r
}

// Get returns the resource stored under name.
func (r *Resources) Get(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.entries[name]
	return v, ok
}

// Lookup returns the resource stored under name, or fallback.
func (r *Resources) Lookup(name, fallback string) string {
	if v, ok := r.Get(name); ok {
		return v
	}
	return fallback
}

// With returns a new bundle with name set to value. r is unchanged.
func (r *Resources) With(name, value string) *Resources {
	out := &Resources{}
	if r != nil {
		out.entries = maps.Clone(r.entries)
	}
	if out.entries == nil {
		out.entries = make(map[string]string, 1)
	}
	out.entries[name] = value
	return out
}

// Names returns the resource names in sorted order.
func (r *Resources) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
