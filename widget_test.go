package fieldtree

import (
	"testing"
)

// testWidget records every refresh and lays out child widgets.
type testWidget struct {
	node      *Node
	binding   *Binding
	refreshes []Change
	seen      map[string]string

	children []Widget
	visible  bool
}

func (w *testWidget) Refresh(c Change) {
	w.refreshes = append(w.refreshes, c)
	w.seen = c.Node.Attributes()
}

func (w *testWidget) SetBinding(b *Binding) {
	w.binding = b
}

func (w *testWidget) InsertChild(index int, child Widget) {
	w.children = append(w.children, nil)
	copy(w.children[index+1:], w.children[index:])
	w.children[index] = child
}

func (w *testWidget) RemoveChild(child Widget) {
	for i, c := range w.children {
		if c == child {
			w.children = append(w.children[:i], w.children[i+1:]...)
			return
		}
	}
}

func (w *testWidget) SetChildrenVisible(visible bool) {
	w.visible = visible
}

// leafWidget only refreshes; it has no room for children.
type leafWidget struct {
	refreshes int
}

func (w *leafWidget) Refresh(c Change) {
	w.refreshes++
}

// countingFactory builds testWidgets and counts calls per node.
type countingFactory struct {
	calls   map[*Node]int
	widgets map[*Node]*testWidget
}

func newCountingFactory() *countingFactory {
	return &countingFactory{
		calls:   make(map[*Node]int),
		widgets: make(map[*Node]*testWidget),
	}
}

func (f *countingFactory) NewWidget(n *Node, res *Resources) (Widget, error) {
	f.calls[n]++
	w := &testWidget{node: n}
	f.widgets[n] = w
	return w, nil
}

// counter counts fan-outs and keeps the last change.
type counter struct {
	calls int
	last  Change
}

func (c *counter) OnModelChanged(ch Change) {
	c.calls++
	c.last = ch
}

func newTestDoc(t *testing.T) *Document {
	t.Helper()
	d, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

// addChild creates a node under parent.
func addChild(t *testing.T, parent *Node, attrs map[string]string) *Node {
	t.Helper()
	n := parent.Document().NewNode(attrs)
	if err := parent.AddChild(n); err != nil {
		t.Fatalf("AddChild failed: %v", err)
	}
	return n
}
