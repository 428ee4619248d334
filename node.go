package fieldtree

import (
	"github.com/oklog/ulid/v2"
)

// NodeID uniquely identifies a node within a Document.
type NodeID string

// newNodeID returns a fresh, time-ordered node ID.
func newNodeID() NodeID {
	return NodeID(ulid.Make().String())
}

// Well-known attribute names.
const (
	// AttrCollapsed holds "true" while the node's children are hidden.
	AttrCollapsed = "collapsed"

	// AttrHidden holds "true" when the node is hidden inside its parent.
	AttrHidden = "hidden"

	// AttrInputType selects the widget variant for the node.
	AttrInputType = "inputType"

	// Link attributes, mutually exclusive by default.
	AttrAbsoluteLink = "absoluteFileLink"
	AttrRelativeLink = "relativeFileLink"
	AttrURL          = "url"
)

// Node is one field of the document tree. It owns its attribute store and
// its children; the parent pointer is a back-reference used for upward
// queries only.
type Node struct {
	id     NodeID
	doc    *Document // back-reference to the owning Document
	parent *Node

	children  []*Node
	lockLevel LockLevel
	store     *AttributeStore

	// lastEdited is the attribute most recently changed on this node.
	lastEdited string

	// released is set once the node is removed from the tree or the
	// document is closed. Views treat released nodes as gone.
	released bool
}

// newNode creates a node owned by d with a copy of attrs.
func newNode(id NodeID, d *Document, attrs map[string]string) *Node {
	return &Node{
		id:    id,
		doc:   d,
		store: NewAttributeStore(attrs),
	}
}

// ID returns the node's identifier.
func (n *Node) ID() NodeID {
	return n.id
}

// Document returns the owning document.
func (n *Node) Document() *Document {
	return n.doc
}

// Parent returns the parent node, or nil for the root and for nodes not in
// the tree.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children. The slice is owned by the node and
// must be treated as read-only; use AddChild, InsertChild and RemoveChild
// to change it.
func (n *Node) Children() []*Node {
	return n.children
}

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Child returns the child at index i.
func (n *Node) Child(i int) (*Node, error) {
	if i < 0 || i >= len(n.children) {
		return nil, ErrInvalidIndex
	}
	return n.children[i], nil
}

// Index returns the node's position among its siblings, or -1 without a parent.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Depth returns the number of ancestors.
func (n *Node) Depth() int {
	depth := 0
	for a := n.parent; a != nil; a = a.parent {
		depth++
	}
	return depth
}

// Released reports whether the node has been removed from its document.
func (n *Node) Released() bool {
	return n.released
}

// Walk calls fn for n and its descendants in depth-first order.
// Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Attribute returns the value of name and whether it is present.
func (n *Node) Attribute(name string) (string, bool) {
	return n.store.Get(name)
}

// Value returns the value of name, Null when absent.
func (n *Node) Value(name string) Value {
	return n.store.Lookup(name)
}

// IsTrue reports whether name holds exactly "true".
func (n *Node) IsTrue(name string) bool {
	return n.store.IsTrue(name)
}

// Attributes returns a copy of the node's attributes.
func (n *Node) Attributes() map[string]string {
	return n.store.Map()
}

// AttributeNames returns the present attribute names in sorted order.
func (n *Node) AttributeNames() []string {
	return n.store.Names()
}

// LastEdited returns the name of the attribute most recently changed on
// this node, or "" if none has been.
func (n *Node) LastEdited() string {
	return n.lastEdited
}

// SetAttribute sets one attribute. Setting Null deletes it. Members of an
// exclusive group are cleared in the same transaction. Returns true if
// anything changed.
func (n *Node) SetAttribute(name string, v Value, addToUndo bool) bool {
	return n.doc.edit(n, name, Changes{name: v}, addToUndo, nil)
}

// SetAttributes commits several attributes atomically under one label:
// every value is written before a single fan-out, and at most one undo
// entry is recorded. Returns true if anything changed.
func (n *Node) SetAttributes(label string, changes Changes, addToUndo bool) bool {
	return n.doc.edit(n, label, changes, addToUndo, nil)
}

// Collapsed reports whether the node's children are hidden.
func (n *Node) Collapsed() bool {
	return n.store.IsTrue(AttrCollapsed)
}

// SetCollapsed stores the collapse flag as an attribute so it survives
// serialization. It is recorded for undo only when the document is
// configured with UndoCollapse.
func (n *Node) SetCollapsed(collapsed bool) bool {
	return n.doc.edit(n, "collapse", Changes{AttrCollapsed: Bool(collapsed)}, n.doc.undoCollapse, nil)
}

// LockLevel returns the lock level set directly on this node.
func (n *Node) LockLevel() LockLevel {
	return n.lockLevel
}

// SetLockLevel changes the node's own lock level and notifies the node and
// every descendant, since their effective lock may have changed.
// Lock changes are not recorded for undo. Returns false if unchanged.
func (n *Node) SetLockLevel(level LockLevel) bool {
	if n.lockLevel == level {
		return false
	}
	n.lockLevel = level
	n.Walk(func(d *Node) bool {
		n.doc.notifier.Notify(Change{Node: d, Kind: LockChanged})
		return true
	})
	return true
}

// EffectiveLock resolves editability from this node and its ancestors.
func (n *Node) EffectiveLock() Editability {
	return n.doc.policy.Effective(n)
}

// CanEdit reports whether the lock policy allows editing attribute name.
func (n *Node) CanEdit(name string) bool {
	return n.doc.policy.CanEdit(n, name)
}

// AddChild appends child to n.
func (n *Node) AddChild(child *Node) error {
	return n.InsertChild(len(n.children), child)
}

// InsertChild inserts child at index i. The child must belong to the same
// document and have no parent.
func (n *Node) InsertChild(i int, child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child.doc != n.doc {
		return ErrForeignNode
	}
	if child == n.doc.root {
		return ErrRootMove
	}
	if child.parent != nil {
		return ErrHasParent
	}
	for a := n; a != nil; a = a.parent {
		if a == child {
			return ErrCycle
		}
	}
	if i < 0 || i > len(n.children) {
		return ErrInvalidIndex
	}

	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n

	n.doc.adopt(child)
	n.doc.notifier.Notify(Change{Node: n, Kind: ChildrenChanged})
	return nil
}

// RemoveChild detaches child and its subtree from the tree. The removed
// nodes are released: their IDs are freed and their observers dropped.
func (n *Node) RemoveChild(child *Node) error {
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotChild
	}

	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil

	n.doc.release(child)
	n.doc.notifier.Notify(Change{Node: n, Kind: ChildrenChanged})
	return nil
}
