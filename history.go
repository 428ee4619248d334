package fieldtree

import (
	"github.com/golang/glog"
)

// Edit is one undo entry: a label and the transactions committed under it,
// at most one per node.
type Edit struct {
	seq   uint64
	label string
	txs   []*Transaction

	// sealed edits no longer absorb following keystroke edits.
	sealed bool
}

// EditInfo describes an undo entry for history display.
type EditInfo struct {
	Seq   uint64
	Label string
	Nodes int      // number of nodes touched
	Names []string // attributes touched, in transaction order
}

// Seq returns the entry's sequence number within its history.
func (e *Edit) Seq() uint64 {
	return e.seq
}

// Label returns the entry's label.
func (e *Edit) Label() string {
	return e.label
}

// Transactions returns the transactions in commit order.
func (e *Edit) Transactions() []*Transaction {
	return append([]*Transaction(nil), e.txs...)
}

// Info returns a display summary of the entry.
func (e *Edit) Info() EditInfo {
	info := EditInfo{Seq: e.seq, Label: e.label, Nodes: len(e.txs)}
	for _, tx := range e.txs {
		info.Names = append(info.Names, tx.names...)
	}
	return info
}

// undo reverts the transactions in reverse commit order.
func (e *Edit) undo() {
	for i := len(e.txs) - 1; i >= 0; i-- {
		e.txs[i].Revert()
	}
}

// redo re-applies the transactions in commit order.
func (e *Edit) redo() {
	for _, tx := range e.txs {
		tx.Apply()
	}
}

// absorb merges next into e when both are single-attribute edits of the
// same attribute on the same node from the same observer. The earliest old
// value is kept so one undo restores the state before the first keystroke.
func (e *Edit) absorb(next *Edit) bool {
	if e.sealed || len(e.txs) != 1 || len(next.txs) != 1 {
		return false
	}
	a, b := e.txs[0], next.txs[0]
	if a.node != b.node || a.origin == nil || a.origin != b.origin {
		return false
	}
	if len(a.names) != 1 || len(b.names) != 1 || a.names[0] != b.names[0] {
		return false
	}
	name := a.names[0]
	a.new[name] = b.new[name]
	return true
}

// History is the two-stack undo/redo list. Recording a new edit clears the
// redo stack.
type History struct {
	undo []*Edit
	redo []*Edit

	limit    int // 0 = unlimited
	coalesce bool
	nextSeq  uint64

	// guard is consulted before undo and redo; a non-nil error blocks them.
	guard func() error

	// replaying is set while an edit is being undone or redone.
	replaying bool
}

// NewHistory creates a history keeping at most limit undo entries
// (0 = unlimited). With coalesce, consecutive edits of one attribute from
// one observer share an undo entry until Seal is called.
func NewHistory(limit int, coalesce bool) *History {
	return &History{limit: limit, coalesce: coalesce}
}

// newEdit creates an entry with the next sequence number.
func (h *History) newEdit(label string, txs ...*Transaction) *Edit {
	h.nextSeq++
	return &Edit{seq: h.nextSeq, label: label, txs: txs}
}

// Record pushes e onto the undo stack and clears the redo stack.
// Edits recorded while another edit is being replayed are not kept, since
// they would otherwise truncate the redo stack mid-undo.
func (h *History) Record(e *Edit) {
	if h.replaying {
		glog.V(1).Infof("[history]dropped %q recorded during replay\n", e.label)
		return
	}
	h.redo = nil

	if h.coalesce && len(h.undo) > 0 {
		if h.undo[len(h.undo)-1].absorb(e) {
			return
		}
	}

	h.undo = append(h.undo, e)
	if h.limit > 0 && len(h.undo) > h.limit {
		drop := len(h.undo) - h.limit
		h.undo = append([]*Edit(nil), h.undo[drop:]...)
	}
	glog.V(1).Infof("[history]record #%d %q\n", e.seq, e.label)
}

// Seal closes the top entry so the next edit starts a new one.
func (h *History) Seal() {
	if len(h.undo) > 0 {
		h.undo[len(h.undo)-1].sealed = true
	}
}

// CanUndo reports whether there is an entry to undo.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether there is an entry to redo.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoLabel returns the label of the entry Undo would revert.
func (h *History) UndoLabel() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].label
}

// RedoLabel returns the label of the entry Redo would re-apply.
func (h *History) RedoLabel() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].label
}

// Undo reverts the most recent entry and moves it to the redo stack.
func (h *History) Undo() (*Edit, error) {
	if h.guard != nil {
		if err := h.guard(); err != nil {
			return nil, err
		}
	}
	if len(h.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	e.sealed = true

	h.replaying = true
	e.undo()
	h.replaying = false

	h.redo = append(h.redo, e)
	glog.V(1).Infof("[history]undo #%d %q\n", e.seq, e.label)
	return e, nil
}

// Redo re-applies the most recently undone entry.
func (h *History) Redo() (*Edit, error) {
	if h.guard != nil {
		if err := h.guard(); err != nil {
			return nil, err
		}
	}
	if len(h.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	h.replaying = true
	e.redo()
	h.replaying = false

	h.undo = append(h.undo, e)
	glog.V(1).Infof("[history]redo #%d %q\n", e.seq, e.label)
	return e, nil
}

// Entries returns the undo stack, oldest first.
func (h *History) Entries() []EditInfo {
	out := make([]EditInfo, len(h.undo))
	for i, e := range h.undo {
		out[i] = e.Info()
	}
	return out
}

// RedoEntries returns the redo stack, next-to-redo last.
func (h *History) RedoEntries() []EditInfo {
	out := make([]EditInfo, len(h.redo))
	for i, e := range h.redo {
		out[i] = e.Info()
	}
	return out
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
