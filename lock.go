package fieldtree

// LockLevel is the lock set directly on a node.
type LockLevel int

const (
	// Unlocked places no restriction on the node.
	Unlocked LockLevel = iota

	// LockedContent makes the node's value attributes read-only while
	// structural attributes such as collapse state stay editable.
	LockedContent

	// LockedAll makes the node and its whole subtree read-only.
	LockedAll
)

// String returns the lock level name.
func (l LockLevel) String() string {
	switch l {
	case Unlocked:
		return "unlocked"
	case LockedContent:
		return "locked-content"
	case LockedAll:
		return "locked-all"
	}
	return "unknown"
}

// ParseLockLevel converts a lock level name back to a LockLevel.
// Unknown names are treated as Unlocked.
func ParseLockLevel(s string) LockLevel {
	switch s {
	case "locked-content":
		return LockedContent
	case "locked-all":
		return LockedAll
	}
	return Unlocked
}

// Editability is the effective result of the lock policy for a node.
type Editability int

const (
	// Editable means every attribute may be edited.
	Editable Editability = iota

	// ContentLocked means only structural attributes may be edited.
	ContentLocked

	// ReadOnly means nothing may be edited.
	ReadOnly
)

// String returns the editability name.
func (e Editability) String() string {
	switch e {
	case Editable:
		return "editable"
	case ContentLocked:
		return "content-locked"
	case ReadOnly:
		return "read-only"
	}
	return "unknown"
}

// LockPolicy resolves effective editability from a node's own lock level and
// the lock levels of its ancestors. It holds no per-node state, so results
// are always computed from the current tree.
type LockPolicy struct {
	structural map[string]bool
}

// NewLockPolicy creates a policy where the given attribute names remain
// editable on content-locked nodes.
func NewLockPolicy(structural []string) LockPolicy {
	p := LockPolicy{structural: make(map[string]bool, len(structural))}
	for _, name := range structural {
		p.structural[name] = true
	}
	return p
}

// Effective walks from n to the root. Any LockedAll on the way makes n
// read-only; LockedContent on n itself makes it content-locked.
func (p LockPolicy) Effective(n *Node) Editability {
	if n == nil {
		return ReadOnly
	}
	for a := n; a != nil; a = a.parent {
		if a.lockLevel == LockedAll {
			return ReadOnly
		}
	}
	if n.lockLevel == LockedContent {
		return ContentLocked
	}
	return Editable
}

// IsStructural reports whether name stays editable under LockedContent.
func (p LockPolicy) IsStructural(name string) bool {
	return p.structural[name]
}

// CanEdit reports whether attribute name of n may be edited.
func (p LockPolicy) CanEdit(n *Node, name string) bool {
	switch p.Effective(n) {
	case Editable:
		return true
	case ContentLocked:
		return p.structural[name]
	}
	return false
}
