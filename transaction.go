package fieldtree

import (
	"sort"

	"github.com/oklog/ulid/v2"
)

// Transaction is one logical edit of one node: a set of attribute writes
// that commit together and are reported by exactly one fan-out.
type Transaction struct {
	id       string
	node     *Node
	label    string
	undoable bool

	// origin is the observer that produced the edit; it is skipped on the
	// first fan-out only.
	origin   Observer
	notified bool

	names   []string // write order, sorted within each merge
	primary string   // the attribute the caller set
	old     map[string]Value
	new     map[string]Value

	applied bool
}

// NewTransaction creates a transaction for n, capturing the current value
// of every attribute in changes as the value to restore on Revert.
// The transaction is not applied until Apply is called.
func NewTransaction(n *Node, label string, changes Changes, undoable bool) *Transaction {
	tx := &Transaction{
		id:       ulid.Make().String(),
		node:     n,
		label:    label,
		undoable: undoable,
		old:      make(map[string]Value, len(changes)),
		new:      make(map[string]Value, len(changes)),
	}
	tx.merge(changes)
	return tx
}

// ID returns the transaction's unique identifier.
func (tx *Transaction) ID() string {
	return tx.id
}

// Node returns the node the transaction edits.
func (tx *Transaction) Node() *Node {
	return tx.node
}

// Label returns the human-readable label shown in the undo list.
func (tx *Transaction) Label() string {
	return tx.label
}

// Undoable reports whether the transaction belongs in the undo history.
func (tx *Transaction) Undoable() bool {
	return tx.undoable
}

// Origin returns the observer that produced the edit, or nil.
func (tx *Transaction) Origin() Observer {
	return tx.origin
}

// Applied reports whether the new values are currently written.
func (tx *Transaction) Applied() bool {
	return tx.applied
}

// Names returns the attribute names the transaction writes.
func (tx *Transaction) Names() []string {
	return append([]string(nil), tx.names...)
}

// Old returns the value name had before the transaction.
func (tx *Transaction) Old(name string) Value {
	return tx.old[name]
}

// New returns the value the transaction writes to name.
func (tx *Transaction) New(name string) Value {
	return tx.new[name]
}

// merge adds changes to the transaction. The first time a name is seen its
// current store value becomes the value restored on Revert.
func (tx *Transaction) merge(changes Changes) {
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, seen := tx.new[name]; !seen {
			tx.names = append(tx.names, name)
			tx.old[name] = tx.node.store.Lookup(name)
		}
		tx.new[name] = changes[name]
	}
}

// write stores vals for every name and returns the names that changed.
func (tx *Transaction) write(vals map[string]Value) []string {
	var changed []string
	for _, name := range tx.names {
		if tx.node.store.Set(name, vals[name]) {
			changed = append(changed, name)
		}
	}
	return changed
}

// netChanged returns the names whose new value differs from the old one.
func (tx *Transaction) netChanged() []string {
	var changed []string
	for _, name := range tx.names {
		if tx.old[name] != tx.new[name] {
			changed = append(changed, name)
		}
	}
	return changed
}

// Apply writes the new values and fires one fan-out. Applying an already
// applied transaction is a no-op. Returns true if any value changed.
func (tx *Transaction) Apply() bool {
	if tx.applied {
		return false
	}
	tx.applied = true
	changed := tx.write(tx.new)
	if len(changed) == 0 {
		return false
	}
	tx.touched(changed)
	tx.notify(changed)
	return true
}

// touched moves the node's LastEdited to the primary attribute when it is
// among changed, else to the last changed name.
func (tx *Transaction) touched(changed []string) {
	if len(changed) == 0 {
		return
	}
	for _, name := range changed {
		if name == tx.primary {
			tx.node.lastEdited = name
			return
		}
	}
	tx.node.lastEdited = changed[len(changed)-1]
}

// Revert writes the old values back and fires one fan-out. Reverting a
// transaction that is not applied is a no-op. Returns true if any value
// changed.
func (tx *Transaction) Revert() bool {
	if !tx.applied {
		return false
	}
	tx.applied = false
	changed := tx.write(tx.old)
	if len(changed) == 0 {
		return false
	}
	tx.notify(changed)
	return true
}

// notify fans out the change, honouring the origin only the first time.
func (tx *Transaction) notify(changed []string) {
	origin := tx.origin
	if tx.notified {
		origin = nil
	}
	tx.notified = true
	tx.node.doc.fanOut(tx, changed, origin)
}
