package fieldtree

import (
	"sort"

	"golang.org/x/exp/maps"
)

// Value is an attribute value that may be absent.
// The zero Value is absent, which is distinct from a present empty string.
type Value struct {
	Str   string
	Valid bool
}

// Null is the absent value. Setting an attribute to Null deletes it.
var Null = Value{}

// Val returns a present value.
func Val(s string) Value {
	return Value{Str: s, Valid: true}
}

// Bool returns Val("true") for true and Null for false, matching the
// string-boolean encoding read by IsTrue.
func Bool(b bool) Value {
	if b {
		return Val("true")
	}
	return Null
}

// String returns the value, or "<absent>" for Null.
func (v Value) String() string {
	if !v.Valid {
		return "<absent>"
	}
	return v.Str
}

// Changes maps attribute names to their new values.
type Changes map[string]Value

// AttributeStore is a named-attribute map owned by exactly one node.
type AttributeStore struct {
	values map[string]string
}

// NewAttributeStore creates a store holding a copy of initial.
func NewAttributeStore(initial map[string]string) *AttributeStore {
	s := &AttributeStore{values: make(map[string]string, len(initial))}
	maps.Copy(s.values, initial)
	return s
}

// Get returns the value of name and whether it is present.
func (s *AttributeStore) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Lookup returns the value of name as a Value.
func (s *AttributeStore) Lookup(name string) Value {
	v, ok := s.values[name]
	if !ok {
		return Null
	}
	return Val(v)
}

// Set stores v under name. Setting Null removes the key.
// Returns true if the stored state changed.
func (s *AttributeStore) Set(name string, v Value) bool {
	old, had := s.values[name]
	if !v.Valid {
		if !had {
			return false
		}
		delete(s.values, name)
		return true
	}
	if had && old == v.Str {
		return false
	}
	s.values[name] = v.Str
	return true
}

// IsTrue reports whether name holds exactly "true".
func (s *AttributeStore) IsTrue(name string) bool {
	return s.values[name] == "true"
}

// Len returns the number of present attributes.
func (s *AttributeStore) Len() int {
	return len(s.values)
}

// Names returns the present attribute names in sorted order.
func (s *AttributeStore) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the attributes as a flat string map.
func (s *AttributeStore) Map() map[string]string {
	return maps.Clone(s.values)
}

// Equal reports whether both stores hold the same attributes.
func (s *AttributeStore) Equal(other *AttributeStore) bool {
	return maps.Equal(s.values, other.values)
}
