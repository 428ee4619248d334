package fieldtree

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestNewNodeDetached(t *testing.T) {
	d := newTestDoc(t)
	n := d.NewNode(map[string]string{"v": "1"})

	if n.Parent() != nil {
		t.Error("new node should have no parent")
	}
	got, err := d.Node(n.ID())
	if err != nil || got != n {
		t.Errorf("Node(%s) = (%v, %v), want the new node", n.ID(), got, err)
	}
	assert.Equal(t, n.Index(), -1)
	assert.Equal(t, d.Len(), 2)
}

func TestInsertChildErrors(t *testing.T) {
	d := newTestDoc(t)
	other := newTestDoc(t)
	a := addChild(t, d.Root(), nil)
	b := addChild(t, a, nil)

	tests := []struct {
		name   string
		parent *Node
		index  int
		child  *Node
		want   error
	}{
		{"nil child", a, 0, nil, ErrNilNode},
		{"foreign", a, 0, other.NewNode(nil), ErrForeignNode},
		{"root", a, 0, d.Root(), ErrRootMove},
		{"has parent", d.Root(), 0, b, ErrHasParent},
		{"bad index", a, 5, d.NewNode(nil), ErrInvalidIndex},
	}
	for _, tt := range tests {
		if err := tt.parent.InsertChild(tt.index, tt.child); err != tt.want {
			t.Errorf("%s: InsertChild error = %v, want %v", tt.name, err, tt.want)
		}
	}

	// Moving a above its own descendant.
	if err := d.Root().RemoveChild(a); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}
	if err := b.AddChild(a); err != ErrCycle {
		t.Errorf("AddChild of an ancestor = %v, want ErrCycle", err)
	}
}

func TestInsertChildOrder(t *testing.T) {
	d := newTestDoc(t)
	first := addChild(t, d.Root(), map[string]string{"name": "first"})
	last := addChild(t, d.Root(), map[string]string{"name": "last"})
	middle := d.NewNode(map[string]string{"name": "middle"})

	c := &counter{}
	d.Notifier().Register(d.Root(), c)

	if err := d.Root().InsertChild(1, middle); err != nil {
		t.Fatalf("InsertChild failed: %v", err)
	}
	assert.Equal(t, c.calls, 1)
	assert.Equal(t, c.last.Kind, ChildrenChanged)

	for i, want := range []*Node{first, middle, last} {
		got, _ := d.Root().Child(i)
		if got != want {
			t.Errorf("Child(%d) = %s, want %s", i, got.Value("name"), want.Value("name"))
		}
		if got.Index() != i {
			t.Errorf("Index() = %d, want %d", got.Index(), i)
		}
	}
	if _, err := d.Root().Child(3); err != ErrInvalidIndex {
		t.Errorf("Child(3) error = %v, want ErrInvalidIndex", err)
	}
}

func TestRemoveChildReleasesSubtree(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	child := addChild(t, n, nil)
	c := &counter{}
	d.Notifier().Register(child, c)

	if err := d.Root().RemoveChild(n); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}
	if err := d.Root().RemoveChild(n); err != ErrNotChild {
		t.Errorf("second RemoveChild = %v, want ErrNotChild", err)
	}

	assert.Equal(t, n.Released(), true)
	assert.Equal(t, child.Released(), true)
	if _, err := d.Node(child.ID()); err != ErrNodeNotFound {
		t.Errorf("Node(removed) error = %v, want ErrNodeNotFound", err)
	}
	if len(d.Notifier().Observers(child)) != 0 {
		t.Error("registrations of removed nodes should be dropped")
	}

	child.SetAttribute("v", Val("1"), false)
	assert.Equal(t, c.calls, 0)

	// Adding it back makes the subtree live again under the same IDs.
	if err := d.Root().AddChild(n); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	assert.Equal(t, child.Released(), false)
	got, err := d.Node(child.ID())
	if err != nil || got != child {
		t.Errorf("Node(%s) after re-adding = (%v, %v)", child.ID(), got, err)
	}
}

func TestBatchDefersFanOut(t *testing.T) {
	d := newTestDoc(t)
	n1 := addChild(t, d.Root(), nil)
	n2 := addChild(t, d.Root(), nil)
	c1, c2 := &counter{}, &counter{}
	d.Notifier().Register(n1, c1)
	d.Notifier().Register(n2, c2)

	d.BatchStart("rename")
	n1.SetAttribute("a", Val("1"), true)
	n1.SetAttribute("b", Val("2"), true)
	n2.SetAttribute("a", Val("3"), true)

	d.BatchStart("inner")
	assert.Equal(t, d.BatchDepth(), 2)
	n2.SetAttribute("c", Val("4"), true)
	if _, err := d.BatchCommit(); err != nil {
		t.Fatalf("inner BatchCommit failed: %v", err)
	}

	// Writes are visible immediately, fan-out waits for the outer commit.
	assert.Equal(t, n1.Value("a"), Val("1"))
	assert.Equal(t, c1.calls, 0)
	assert.Equal(t, c2.calls, 0)

	info, err := d.BatchCommit()
	if err != nil {
		t.Fatalf("BatchCommit failed: %v", err)
	}
	assert.Equal(t, info.Label, "rename")
	assert.Equal(t, info.Nodes, 2)
	assert.Equal(t, d.InBatch(), false)

	assert.Equal(t, c1.calls, 1)
	assert.Equal(t, c1.last.Names, []string{"a", "b"})
	assert.Equal(t, c2.calls, 1)
	assert.Equal(t, c2.last.Names, []string{"a", "c"})

	entries := d.History().Entries()
	assert.Equal(t, len(entries), 1)
	assert.Equal(t, entries[0].Label, "rename")

	d.Undo()
	assert.Equal(t, len(n1.AttributeNames()), 0)
	assert.Equal(t, len(n2.AttributeNames()), 0)
}

func TestBatchInnerRollbackPoisons(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{"v": "orig"})
	c := &counter{}
	d.Notifier().Register(n, c)

	d.BatchStart("outer")
	n.SetAttribute("v", Val("outer"), true)
	d.BatchStart("inner")
	n.SetAttribute("w", Val("inner"), true)
	if err := d.BatchRollback(); err != nil {
		t.Fatalf("BatchRollback failed: %v", err)
	}
	assert.Equal(t, d.InBatch(), true)

	if _, err := d.BatchCommit(); err != ErrBatchPoisoned {
		t.Errorf("BatchCommit error = %v, want ErrBatchPoisoned", err)
	}
	assert.Equal(t, n.Value("v"), Val("orig"))
	assert.Equal(t, n.Value("w"), Null)
	assert.Equal(t, c.calls, 0)
	assert.Equal(t, d.History().CanUndo(), false)
	assert.Equal(t, d.InBatch(), false)
}

func TestBatchRollback(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{"v": "orig"})

	d.BatchStart("discard")
	n.SetAttribute("v", Val("changed"), true)
	if err := d.BatchRollback(); err != nil {
		t.Fatalf("BatchRollback failed: %v", err)
	}

	assert.Equal(t, n.Value("v"), Val("orig"))
	assert.Equal(t, d.InBatch(), false)
	assert.Equal(t, d.BatchRollback(), ErrNoBatch)
	if _, err := d.BatchCommit(); err != ErrNoBatch {
		t.Errorf("BatchCommit without batch = %v, want ErrNoBatch", err)
	}
}

func TestBatchBlocksUndo(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	n.SetAttribute("v", Val("1"), true)

	d.BatchStart("pending")
	if _, err := d.Undo(); err != ErrBatchPending {
		t.Errorf("Undo during batch = %v, want ErrBatchPending", err)
	}
	if _, err := d.Redo(); err != ErrBatchPending {
		t.Errorf("Redo during batch = %v, want ErrBatchPending", err)
	}
	d.BatchCommit()

	if _, err := d.Undo(); err != nil {
		t.Errorf("Undo after batch failed: %v", err)
	}
}

func TestBatchWithoutUndoStillNotifies(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	c := &counter{}
	d.Notifier().Register(n, c)

	d.BatchStart("view state")
	n.SetCollapsed(true)
	info, err := d.BatchCommit()
	if err != nil {
		t.Fatalf("BatchCommit failed: %v", err)
	}

	assert.Equal(t, info.Nodes, 1)
	assert.Equal(t, c.calls, 1)
	assert.Equal(t, c.last.Kind, CollapseChanged)
	assert.Equal(t, d.History().CanUndo(), false)
}

func TestBatchKeepsTransientEditsOutOfHistory(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	c := &counter{}
	d.Notifier().Register(n, c)

	d.BatchStart("fill in")
	n.SetAttribute("showDescription", Val("true"), false)
	n.SetAttribute("value", Val("5"), true)
	info, err := d.BatchCommit()
	if err != nil {
		t.Fatalf("BatchCommit failed: %v", err)
	}

	assert.Equal(t, info.Label, "fill in")
	assert.Equal(t, c.calls, 1)
	assert.Equal(t, c.last.Names, []string{"showDescription", "value"})
	assert.Equal(t, c.last.Transaction.Undoable(), true)

	if _, err := d.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	assert.Equal(t, n.Value("value"), Null)
	assert.Equal(t, n.Value("showDescription"), Val("true"))
	assert.Equal(t, d.History().CanUndo(), false)

	d.Redo()
	assert.Equal(t, n.Value("value"), Val("5"))
}

func TestBatchRollbackRestoresMixedEdits(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{"value": "orig"})

	d.BatchStart("discard")
	n.SetAttribute("value", Val("undoable"), true)
	n.SetAttribute("value", Val("transient"), false)
	n.SetAttribute("showDescription", Val("true"), false)
	d.BatchRollback()

	assert.Equal(t, n.Value("value"), Val("orig"))
	assert.Equal(t, n.Value("showDescription"), Null)
}

func TestBatchNetNoChange(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{"v": "1"})
	c := &counter{}
	d.Notifier().Register(n, c)

	d.BatchStart("round trip")
	n.SetAttribute("v", Val("2"), true)
	n.SetAttribute("v", Val("1"), true)
	d.BatchCommit()

	assert.Equal(t, c.calls, 0)
	assert.Equal(t, d.History().CanUndo(), false)
}

func TestDocumentClose(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	v, _ := d.NewDisplay(newCountingFactory(), nil)
	v.Root()
	n.SetAttribute("v", Val("1"), true)

	d.Close()

	assert.Equal(t, n.Released(), true)
	assert.Equal(t, d.Len(), 0)
	assert.Equal(t, d.Notifier().Len(), 0)
	assert.Equal(t, d.History().CanUndo(), false)
	if _, err := v.Root(); err != ErrDisplayClosed {
		t.Errorf("Root() on closed display = %v, want ErrDisplayClosed", err)
	}
}
