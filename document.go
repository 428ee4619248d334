package fieldtree

import (
	"github.com/golang/glog"
)

// batchState holds the state of an active batch.
type batchState struct {
	depth    int    // nesting depth
	label    string // from outermost BatchStart
	poisoned bool   // whether any inner batch rolled back

	// Staged transactions, one per node and undo eligibility, in order of
	// creation. Nodes are kept in order of first touch.
	txs    []*Transaction
	staged map[stageKey]*Transaction
	nodes  []*Node

	// Values each touched attribute had before the batch, in order of first
	// touch. Restored on rollback.
	before map[*Node][]savedValue
}

type stageKey struct {
	node     *Node
	undoable bool
}

type savedValue struct {
	name  string
	value Value
}

// Document owns a tree of fields together with its observer registry,
// undo history and lock policy. A Document is not safe for concurrent use:
// every mutation and every notification runs on the caller's goroutine.
type Document struct {
	root  *Node
	nodes map[NodeID]*Node

	notifier *Notifier
	history  *History
	policy   LockPolicy
	groups   exclusiveGroups

	parentNotify map[string]bool
	undoCollapse bool

	batch    *batchState
	displays []*Display
}

// New creates a document with an empty root node.
func New(cfg Config) (*Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Document{
		nodes:        make(map[NodeID]*Node),
		notifier:     NewNotifier(cfg.OnObserverFailure),
		history:      NewHistory(cfg.UndoLimit, cfg.CoalesceEdits),
		policy:       NewLockPolicy(cfg.Structural),
		groups:       newExclusiveGroups(cfg.ExclusiveGroups),
		parentNotify: make(map[string]bool, len(cfg.ParentNotify)),
		undoCollapse: cfg.UndoCollapse,
	}
	for _, name := range cfg.ParentNotify {
		d.parentNotify[name] = true
	}
	d.history.guard = d.replayGuard

	d.root = newNode(newNodeID(), d, nil)
	d.nodes[d.root.id] = d.root
	return d, nil
}

// Root returns the root node.
func (d *Document) Root() *Node {
	return d.root
}

// Node looks up a node by ID.
func (d *Document) Node(id NodeID) (*Node, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

// Len returns the number of live nodes, including nodes not yet added to
// the tree.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Notifier returns the document's observer registry.
func (d *Document) Notifier() *Notifier {
	return d.notifier
}

// History returns the document's undo history.
func (d *Document) History() *History {
	return d.history
}

// Policy returns the document's lock policy.
func (d *Document) Policy() LockPolicy {
	return d.policy
}

// ExclusiveGroup returns the members of the exclusive group containing
// name, or nil if name is in no group.
func (d *Document) ExclusiveGroup(name string) []string {
	return append([]string(nil), d.groups.group(name)...)
}

// NewNode creates a node with a copy of attrs. The node is not part of the
// tree until it is added to a parent.
func (d *Document) NewNode(attrs map[string]string) *Node {
	n := newNode(newNodeID(), d, attrs)
	d.nodes[n.id] = n
	return n
}

// Undo reverts the most recent undo entry.
func (d *Document) Undo() (EditInfo, error) {
	e, err := d.history.Undo()
	if err != nil {
		return EditInfo{}, err
	}
	return e.Info(), nil
}

// Redo re-applies the most recently undone entry.
func (d *Document) Redo() (EditInfo, error) {
	e, err := d.history.Redo()
	if err != nil {
		return EditInfo{}, err
	}
	return e.Info(), nil
}

func (d *Document) replayGuard() error {
	if d.batch != nil {
		return ErrBatchPending
	}
	return nil
}

// Close releases every node and drops every registration. Open displays
// are closed first.
func (d *Document) Close() {
	for len(d.displays) > 0 {
		d.displays[0].Close()
	}
	d.batch = nil
	d.history.Clear()
	d.notifier.Clear()
	for _, n := range d.nodes {
		n.released = true
	}
	d.nodes = make(map[NodeID]*Node)
}

// edit routes an attribute edit either into the active batch or through a
// new transaction, recording it for undo when asked.
func (d *Document) edit(n *Node, label string, changes Changes, addToUndo bool, origin Observer) bool {
	if len(changes) == 0 {
		return false
	}
	primary := d.groups.primary(changes)
	changes = d.groups.expand(changes)

	if d.batch != nil {
		return d.stage(n, changes, primary, addToUndo, origin)
	}

	tx := NewTransaction(n, label, changes, addToUndo)
	tx.origin = origin
	tx.primary = primary
	if !tx.Apply() {
		return false
	}
	if addToUndo {
		d.history.Record(d.history.newEdit(label, tx))
	}
	return true
}

// fanOut notifies the node's observers of a transaction's writes, and the
// parent's observers when a structural attribute changed.
func (d *Document) fanOut(tx *Transaction, names []string, origin Observer) {
	var kind ChangeKind
	touchesParent := false
	for _, name := range names {
		if name == AttrCollapsed {
			kind |= CollapseChanged
		} else {
			kind |= AttributeChanged
		}
		if d.parentNotify[name] {
			touchesParent = true
		}
	}

	d.notifier.Notify(Change{
		Node:        tx.node,
		Kind:        kind,
		Names:       names,
		Origin:      origin,
		Transaction: tx,
	})

	if touchesParent && tx.node.parent != nil {
		d.notifier.Notify(Change{
			Node:        tx.node.parent,
			Kind:        ChildrenChanged,
			Names:       names,
			Transaction: tx,
		})
	}
}

// adopt registers n and its subtree after it was added to the tree.
func (d *Document) adopt(n *Node) {
	n.Walk(func(c *Node) bool {
		if other, taken := d.nodes[c.id]; taken && other != c {
			c.id = newNodeID()
		}
		c.released = false
		d.nodes[c.id] = c
		return true
	})
}

// release frees the IDs and registrations of n and its subtree.
func (d *Document) release(n *Node) {
	n.Walk(func(c *Node) bool {
		if d.nodes[c.id] == c {
			delete(d.nodes, c.id)
		}
		d.notifier.Drop(c)
		c.released = true
		return true
	})
}

// InBatch returns true if any batch is active.
func (d *Document) InBatch() bool {
	return d.batch != nil
}

// BatchDepth returns the current nesting depth (0 = no active batch).
func (d *Document) BatchDepth() int {
	if d.batch == nil {
		return 0
	}
	return d.batch.depth
}

// BatchStart begins a batch. Edits made until the matching BatchCommit are
// written immediately but reported by one fan-out per node at the outermost
// commit, and recorded as a single undo entry labelled with the outermost
// label.
func (d *Document) BatchStart(label string) error {
	if d.batch == nil {
		d.batch = &batchState{
			depth:  1,
			label:  label,
			staged: make(map[stageKey]*Transaction),
			before: make(map[*Node][]savedValue),
		}
	} else {
		d.batch.depth++
	}
	return nil
}

// BatchCommit commits the current batch level.
func (d *Document) BatchCommit() (EditInfo, error) {
	if d.batch == nil {
		return EditInfo{}, ErrNoBatch
	}

	d.batch.depth--
	if d.batch.depth > 0 {
		return EditInfo{Label: d.batch.label}, nil
	}

	// Outermost commit
	b := d.batch
	if b.poisoned {
		d.rollbackBatch()
		d.batch = nil
		return EditInfo{}, ErrBatchPoisoned
	}
	d.batch = nil

	var undoable []*Transaction
	for _, tx := range b.txs {
		if tx.undoable && len(tx.netChanged()) > 0 {
			undoable = append(undoable, tx)
		}
	}

	notified := 0
	for _, n := range b.nodes {
		if d.notifyStaged(b, n) {
			notified++
		}
	}

	glog.V(1).Infof("[batch]commit %q nodes=%d\n", b.label, notified)

	if len(undoable) == 0 {
		return EditInfo{Label: b.label, Nodes: notified}, nil
	}
	e := d.history.newEdit(b.label, undoable...)
	d.history.Record(e)
	return e.Info(), nil
}

// BatchRollback discards the current batch level. An inner rollback poisons
// the batch so that the outermost commit rolls back too.
func (d *Document) BatchRollback() error {
	if d.batch == nil {
		return ErrNoBatch
	}

	d.batch.poisoned = true
	d.batch.depth--

	if d.batch.depth == 0 {
		d.rollbackBatch()
		d.batch = nil
	}
	return nil
}

// rollbackBatch restores the values captured before the batch. Nothing was
// reported for the staged writes, so nothing is reported for their removal.
func (d *Document) rollbackBatch() {
	if d.batch == nil {
		return
	}
	for i := len(d.batch.nodes) - 1; i >= 0; i-- {
		n := d.batch.nodes[i]
		for _, sv := range d.batch.before[n] {
			n.store.Set(sv.name, sv.value)
		}
	}
	for _, tx := range d.batch.txs {
		tx.applied = false
	}
	glog.V(1).Infof("[batch]rollback %q\n", d.batch.label)
}

// stage writes changes into the batch's transaction for n without
// notifying. Undoable and non-undoable writes go to separate transactions so
// that only the former reach the history.
func (d *Document) stage(n *Node, changes Changes, primary string, undoable bool, origin Observer) bool {
	b := d.batch
	key := stageKey{node: n, undoable: undoable}
	tx, ok := b.staged[key]
	if !ok {
		tx = NewTransaction(n, b.label, nil, undoable)
		tx.origin = origin
		tx.applied = true
		b.staged[key] = tx
		b.txs = append(b.txs, tx)
		if _, touched := b.before[n]; !touched {
			b.nodes = append(b.nodes, n)
			b.before[n] = nil
		}
	} else if tx.origin != origin {
		tx.origin = nil
	}
	tx.primary = primary

	tx.merge(changes)
	for _, name := range tx.names {
		if _, given := changes[name]; given && !b.saved(n, name) {
			b.before[n] = append(b.before[n], savedValue{name: name, value: n.store.Lookup(name)})
		}
	}
	var changed []string
	for _, name := range tx.names {
		v, given := changes[name]
		if given && n.store.Set(name, v) {
			changed = append(changed, name)
		}
	}
	tx.touched(changed)
	return len(changed) > 0
}

// saved reports whether the value name had before the batch is recorded.
func (b *batchState) saved(n *Node, name string) bool {
	for _, sv := range b.before[n] {
		if sv.name == name {
			return true
		}
	}
	return false
}

// notifyStaged fires the single fan-out for n at the outermost commit. It
// reports every attribute whose value differs from the one it had before the
// batch. An undoable transaction, when there is one, is reported as the
// change's transaction.
func (d *Document) notifyStaged(b *batchState, n *Node) bool {
	var names []string
	for _, sv := range b.before[n] {
		if n.store.Lookup(sv.name) != sv.value {
			names = append(names, sv.name)
		}
	}

	var lead *Transaction
	var origin Observer
	first := true
	for _, undoable := range []bool{true, false} {
		tx, ok := b.staged[stageKey{node: n, undoable: undoable}]
		if !ok {
			continue
		}
		tx.notified = true
		if lead == nil || len(lead.netChanged()) == 0 {
			lead = tx
		}
		if first {
			origin = tx.origin
			first = false
		} else if origin != tx.origin {
			origin = nil
		}
	}
	if len(names) == 0 {
		return false
	}
	d.fanOut(lead, names, origin)
	return true
}
