package fieldtree

// AttributeSource is the capability a document reader provides for each
// field it parsed. It is checked once, when the tree is built.
type AttributeSource interface {
	// SourceID returns the field's stable ID, or "" to have one assigned.
	SourceID() string

	// SourceAttributes returns the field's flat attribute map.
	SourceAttributes() map[string]string

	// SourceLock returns the field's own lock level.
	SourceLock() LockLevel

	// SourceChildren returns the field's children in order.
	SourceChildren() []AttributeSource
}

// NodeData is a plain in-memory description of a field subtree. It is what
// Export produces and what serializers outside this package read and write.
type NodeData struct {
	ID         string
	Lock       LockLevel
	Attributes map[string]string
	Children   []NodeData
}

// SourceID implements AttributeSource.
func (s NodeData) SourceID() string { return s.ID }

// SourceAttributes implements AttributeSource.
func (s NodeData) SourceAttributes() map[string]string { return s.Attributes }

// SourceLock implements AttributeSource.
func (s NodeData) SourceLock() LockLevel { return s.Lock }

// SourceChildren implements AttributeSource.
func (s NodeData) SourceChildren() []AttributeSource {
	out := make([]AttributeSource, len(s.Children))
	for i, c := range s.Children {
		out[i] = c
	}
	return out
}

// Build creates a detached subtree from src. IDs from src are kept unless
// they are empty or already used in this document, in which case fresh
// IDs are assigned.
func (d *Document) Build(src AttributeSource) (*Node, error) {
	if src == nil {
		return nil, ErrNoAttributeStore
	}

	id := NodeID(src.SourceID())
	if _, taken := d.nodes[id]; id == "" || taken {
		id = newNodeID()
	}
	n := newNode(id, d, src.SourceAttributes())
	n.lockLevel = src.SourceLock()
	d.nodes[n.id] = n

	for _, childSrc := range src.SourceChildren() {
		child, err := d.Build(childSrc)
		if err != nil {
			d.release(n)
			return nil, err
		}
		child.parent = n
		n.children = append(n.children, child)
	}
	return n, nil
}

// Load replaces the whole tree with one built from src. Open displays are
// closed and the undo history is cleared, since both describe the old tree.
func (d *Document) Load(src AttributeSource) error {
	if d.batch != nil {
		return ErrBatchPending
	}
	old := d.root
	d.release(old)
	root, err := d.Build(src)
	if err != nil {
		d.adopt(old)
		return err
	}

	for len(d.displays) > 0 {
		d.displays[0].Close()
	}
	d.history.Clear()
	d.root = root
	return nil
}

// Import builds src and appends it as the last child of parent. This is
// how fields copied from another document enter this one.
func (d *Document) Import(parent *Node, src AttributeSource) (*Node, error) {
	if parent == nil {
		return nil, ErrNilNode
	}
	if parent.doc != d {
		return nil, ErrForeignNode
	}
	n, err := d.Build(src)
	if err != nil {
		return nil, err
	}
	if err := parent.AddChild(n); err != nil {
		d.release(n)
		return nil, err
	}
	return n, nil
}

// Export describes the whole tree.
func (d *Document) Export() NodeData {
	return ExportNode(d.root)
}

// ExportNode describes n and its subtree.
func ExportNode(n *Node) NodeData {
	data := NodeData{
		ID:         string(n.id),
		Lock:       n.lockLevel,
		Attributes: n.store.Map(),
	}
	for _, c := range n.children {
		data.Children = append(data.Children, ExportNode(c))
	}
	return data
}
