package fieldtree

import (
	"fmt"
	"sort"
)

// exclusiveGroups indexes attribute sets where at most one member may be
// present at a time.
type exclusiveGroups struct {
	groups [][]string
	member map[string]int // attribute name to group index
}

// newExclusiveGroups indexes groups. Groups are assumed validated.
func newExclusiveGroups(groups [][]string) exclusiveGroups {
	g := exclusiveGroups{member: make(map[string]int)}
	for _, group := range groups {
		members := append([]string(nil), group...)
		for _, name := range members {
			g.member[name] = len(g.groups)
		}
		g.groups = append(g.groups, members)
	}
	return g
}

// group returns the members of the group containing name, or nil.
func (g exclusiveGroups) group(name string) []string {
	idx, ok := g.member[name]
	if !ok {
		return nil
	}
	return g.groups[idx]
}

// expand returns changes extended so that every group with a member being
// set to a present value has its other members set to Null. Members named
// explicitly in changes are left as given. Setting two members of one group
// to present values is a programming error and panics.
func (g exclusiveGroups) expand(changes Changes) Changes {
	if len(g.member) == 0 {
		return changes
	}

	var out Changes
	setBy := make(map[int]string)
	for name, v := range changes {
		idx, ok := g.member[name]
		if !ok || !v.Valid {
			continue
		}
		if other, dup := setBy[idx]; dup {
			panic(fmt.Errorf("%w: %q and %q", ErrExclusiveConflict, other, name))
		}
		setBy[idx] = name

		for _, sibling := range g.groups[idx] {
			if _, given := changes[sibling]; given {
				continue
			}
			if out == nil {
				out = make(Changes, len(changes)+len(g.groups[idx]))
				for k, v := range changes {
					out[k] = v
				}
			}
			out[sibling] = Null
		}
	}
	if out == nil {
		return changes
	}
	return out
}

// primary picks the attribute an edit is about: the group member being set
// to a present value if there is one, else the last name in sorted order.
// Call it before expand.
func (g exclusiveGroups) primary(changes Changes) string {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	for i := len(names) - 1; i >= 0; i-- {
		if _, grouped := g.member[names[i]]; grouped && changes[names[i]].Valid {
			return names[i]
		}
	}
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}
